package usage

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memoryRepository is a mutex-guarded in-memory Repository for tests.
type memoryRepository struct {
	mu     sync.Mutex
	events []UsageEvent
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{}
}

func (m *memoryRepository) Insert(_ context.Context, event *UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *memoryRepository) CountSince(_ context.Context, identifier, action string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for i := range m.events {
		e := &m.events[i]
		if e.Identifier == identifier && e.Action == action && e.Timestamp.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepository) OldestSince(_ context.Context, identifier, action string, since time.Time) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *time.Time
	for i := range m.events {
		e := &m.events[i]
		if e.Identifier != identifier || e.Action != action || !e.Timestamp.After(since) {
			continue
		}
		if oldest == nil || e.Timestamp.Before(*oldest) {
			ts := e.Timestamp
			oldest = &ts
		}
	}
	return oldest, nil
}

func (m *memoryRepository) FindByUser(_ context.Context, userID string) ([]UsageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UsageEvent
	for i := range m.events {
		if m.events[i].UserID == userID {
			out = append(out, m.events[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *memoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time, limit int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []UsageEvent
	var deleted int64
	for i := range m.events {
		if m.events[i].Timestamp.Before(cutoff) && deleted < int64(limit) {
			deleted++
			continue
		}
		kept = append(kept, m.events[i])
	}
	m.events = kept
	return deleted, nil
}

func newTestService(t *testing.T, repo Repository) (Service, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	svc := NewService(repo, ServiceConfig{Policies: DefaultPolicyTable()}, clock, zap.NewNop())
	return svc, clock
}

func seedEvents(t *testing.T, repo Repository, identifier, action string, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Insert(context.Background(), &UsageEvent{
			Identifier: identifier,
			UserID:     identifier,
			Action:     action,
			Timestamp:  at.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestCheckLimitAllowsUnderQuota(t *testing.T) {
	repo := newMemoryRepository()
	svc, clock := newTestService(t, repo)
	now := clock.Now()

	seedEvents(t, repo, "user-1", "quest", 4, now.Add(-30*time.Minute))

	result, err := svc.CheckLimit(context.Background(), "user-1", "quest")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 6, result.Remaining)
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, 10, result.Limit)
	require.NotNil(t, result.ResetAt)
	assert.Equal(t, now.Add(-30*time.Minute).Add(time.Hour), *result.ResetAt)
}

func TestCheckLimitDeniesAtQuota(t *testing.T) {
	repo := newMemoryRepository()
	svc, clock := newTestService(t, repo)

	// pack_open carries a 24-hour window, not the usual hour
	seedEvents(t, repo, "user-1", "pack_open", 3, clock.Now().Add(-12*time.Hour))

	result, err := svc.CheckLimit(context.Background(), "user-1", "pack_open")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, 3, result.Limit)
}

func TestCheckLimitIgnoresExpiredEvents(t *testing.T) {
	repo := newMemoryRepository()
	svc, clock := newTestService(t, repo)

	seedEvents(t, repo, "user-1", "deck_create", 5, clock.Now().Add(-2*time.Hour))

	result, err := svc.CheckLimit(context.Background(), "user-1", "deck_create")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 5, result.Remaining)
	assert.Equal(t, 0, result.Count)
	assert.Nil(t, result.ResetAt)
}

func TestCheckLimitUnknownActionUsesFallback(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	result, err := svc.CheckLimit(context.Background(), "user-1", "page_view")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 100, result.Limit)
	assert.Equal(t, 100, result.Remaining)
}

func TestCheckLimitAnonymousFailsOpen(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	result, err := svc.CheckLimit(context.Background(), "", "quest")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, AnonymousRemaining, result.Remaining)
}

func TestRecordPrefersUserID(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	result, err := svc.Record(context.Background(), RecordInput{
		UserID:    "user-1",
		SessionID: "session-9",
		Action:    "battle",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	count, err := svc.CountInWindow(context.Background(), "user-1", "battle", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.CountInWindow(context.Background(), "session-9", "battle", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRecordFallsBackToSessionID(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	result, err := svc.Record(context.Background(), RecordInput{
		SessionID: "session-9",
		Action:    "quest",
		Metadata:  map[string]interface{}{"quest_id": "q-42"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	count, err := svc.CountInWindow(context.Background(), "session-9", "quest", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRecordDropsUnencodableMetadata(t *testing.T) {
	repo := newMemoryRepository()
	core, logs := observer.New(zapcore.WarnLevel)
	clock := quartz.NewMock(t)
	svc := NewService(repo, ServiceConfig{Policies: DefaultPolicyTable()}, clock, zap.New(core))

	result, err := svc.Record(context.Background(), RecordInput{
		UserID: "user-1",
		Action: "quest",
		Metadata: map[string]interface{}{
			"bad": make(chan int),
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	// The event still lands, just without the metadata, and the drop is logged
	require.Len(t, repo.events, 1)
	assert.Empty(t, repo.events[0].Metadata)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "metadata")
}

func TestRecordWithoutIdentifierIsNoop(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	result, err := svc.Record(context.Background(), RecordInput{Action: "quest"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, repo.events)
}

func TestGetUserStats(t *testing.T) {
	repo := newMemoryRepository()
	svc, clock := newTestService(t, repo)
	now := clock.Now()

	seedEvents(t, repo, "user-1", "quest", 2, now.Add(-2*time.Hour))
	seedEvents(t, repo, "user-1", "battle", 3, now.Add(-3*24*time.Hour))
	seedEvents(t, repo, "user-1", "quest", 1, now.Add(-10*24*time.Hour))
	seedEvents(t, repo, "user-2", "quest", 5, now.Add(-time.Hour))

	stats, err := svc.GetUserStats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalActions)
	assert.Equal(t, 2, stats.TodayActions)
	assert.Equal(t, 5, stats.WeekActions)
	assert.Equal(t, map[string]int{"quest": 3, "battle": 3}, stats.ActionBreakdown)
	require.NotNil(t, stats.FirstAction)
	require.NotNil(t, stats.LastAction)
	assert.True(t, stats.FirstAction.Before(*stats.LastAction))
}

func TestGetUserStatsEmpty(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	stats, err := svc.GetUserStats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalActions)
	assert.Nil(t, stats.FirstAction)
	assert.Nil(t, stats.LastAction)
}

func TestPruneRespectsBatchSizeAndRetention(t *testing.T) {
	repo := newMemoryRepository()
	clock := quartz.NewMock(t)
	svc := NewService(repo, ServiceConfig{
		Policies:       DefaultPolicyTable(),
		Retention:      30 * 24 * time.Hour,
		PruneBatchSize: 2,
	}, clock, zap.NewNop())

	now := clock.Now()
	seedEvents(t, repo, "user-1", "quest", 3, now.Add(-40*24*time.Hour))
	seedEvents(t, repo, "user-1", "quest", 2, now.Add(-time.Hour))

	deleted, err := svc.PruneOlderThan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = svc.PruneOlderThan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Only the recent events remain; further runs are no-ops
	deleted, err = svc.PruneOlderThan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
	assert.Len(t, repo.events, 2)
}

func TestPolicyTableLookup(t *testing.T) {
	table := DefaultPolicyTable()

	quest := table.Lookup("quest")
	assert.Equal(t, 10, quest.Max)
	assert.Equal(t, time.Hour, quest.Window)

	packOpen := table.Lookup("pack_open")
	assert.Equal(t, 3, packOpen.Max)
	assert.Equal(t, 24*time.Hour, packOpen.Window)

	unknown := table.Lookup("something_else")
	assert.Equal(t, 100, unknown.Max)
	assert.Equal(t, time.Hour, unknown.Window)
}
