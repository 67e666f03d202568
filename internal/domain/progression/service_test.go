package progression

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryRepository is a mutex-guarded in-memory Repository for tests.
type memoryRepository struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	entries  []XpActivityEntry
	profiles map[string]*ProfileProjection
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{profiles: make(map[string]*ProfileProjection)}
}

func (m *memoryRepository) InsertActivity(_ context.Context, entry *XpActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryRepository) FindActivityByUser(_ context.Context, userID string) ([]XpActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []XpActivityEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memoryRepository) RecentActivity(ctx context.Context, userID string, limit int) ([]XpActivityEntry, error) {
	entries, err := m.FindActivityByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *memoryRepository) ActivitySince(ctx context.Context, userID string, since time.Time) ([]XpActivityEntry, error) {
	entries, err := m.FindActivityByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []XpActivityEntry
	for _, e := range entries {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryRepository) FindProfile(_ context.Context, userID string) (*ProfileProjection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (m *memoryRepository) FindProfileForUpdate(ctx context.Context, userID string) (*ProfileProjection, error) {
	return m.FindProfile(ctx, userID)
}

func (m *memoryRepository) UpdateProfile(_ context.Context, profile *ProfileProjection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *profile
	m.profiles[profile.UserID] = &copied
	return nil
}

func (m *memoryRepository) Transaction(_ context.Context, fn func(Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func newTestService(t *testing.T, repo Repository) (Service, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	svc := NewService(repo, DefaultTitleTable(), clock, zap.NewNop())
	return svc, clock
}

func TestGrantUpdatesProfile(t *testing.T) {
	repo := newMemoryRepository()
	repo.profiles["user-1"] = &ProfileProjection{
		UserID: "user-1",
		Xp:     980,
		Level:  1,
		Title:  DefaultTitle,
	}
	svc, _ := newTestService(t, repo)

	result, err := svc.Grant(context.Background(), GrantInput{
		UserID: "user-1",
		Amount: 50,
		Source: "quest",
	})
	require.NoError(t, err)
	assert.Equal(t, 1030, result.NewXp)
	assert.Equal(t, 2, result.NewLevel)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, "Apprentice Coder", result.NewTitle)

	profile := repo.profiles["user-1"]
	assert.Equal(t, 1030, profile.Xp)
	assert.Equal(t, 2, profile.Level)
	assert.Equal(t, "Apprentice Coder", profile.Title)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "quest", repo.entries[0].Source)
}

func TestGrantWithoutLevelUp(t *testing.T) {
	repo := newMemoryRepository()
	repo.profiles["user-1"] = &ProfileProjection{
		UserID: "user-1",
		Xp:     100,
		Level:  1,
		Title:  DefaultTitle,
	}
	svc, _ := newTestService(t, repo)

	result, err := svc.Grant(context.Background(), GrantInput{
		UserID: "user-1",
		Amount: 200,
		Source: "battle",
	})
	require.NoError(t, err)
	assert.Equal(t, 300, result.NewXp)
	assert.Equal(t, 1, result.NewLevel)
	assert.False(t, result.LeveledUp)
	assert.Empty(t, result.NewTitle)
}

func TestGrantMissingProfileSynthesizesResult(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	result, err := svc.Grant(context.Background(), GrantInput{
		UserID: "ghost",
		Amount: 75,
		Source: "streak",
	})
	require.NoError(t, err)
	assert.Equal(t, 75, result.NewXp)
	assert.Equal(t, 1, result.NewLevel)
	assert.False(t, result.LeveledUp)

	// The ledger entry still lands; only the projection is skipped
	require.Len(t, repo.entries, 1)
	assert.Empty(t, repo.profiles)
}

func TestGrantRejectsNonPositiveAmount(t *testing.T) {
	repo := newMemoryRepository()
	svc, _ := newTestService(t, repo)

	_, err := svc.Grant(context.Background(), GrantInput{UserID: "user-1", Amount: 0, Source: "quest"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Grant(context.Background(), GrantInput{UserID: "user-1", Amount: -10, Source: "quest"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, repo.entries)
}

func seedEntry(t *testing.T, repo *memoryRepository, userID string, amount int, source string, at time.Time) {
	t.Helper()
	require.NoError(t, repo.InsertActivity(context.Background(), &XpActivityEntry{
		UserID:    userID,
		Amount:    amount,
		Source:    source,
		Timestamp: at,
	}))
}

func TestGetXpStats(t *testing.T) {
	repo := newMemoryRepository()
	svc, clock := newTestService(t, repo)

	// Put "now" mid-day so today and yesterday are distinct
	clock.Advance(12 * time.Hour)
	now := clock.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	seedEntry(t, repo, "user-1", 100, "quest", todayStart.Add(2*time.Hour))
	seedEntry(t, repo, "user-1", 50, "streak", todayStart.Add(-5*time.Hour))
	seedEntry(t, repo, "user-1", 200, "quest", todayStart.Add(-8*24*time.Hour))
	seedEntry(t, repo, "user-2", 999, "quest", todayStart)

	stats, err := svc.GetXpStats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 350, stats.TotalXp)
	assert.Equal(t, 100, stats.TodayXp)
	assert.Equal(t, 150, stats.WeekXp)
	assert.Equal(t, 3, stats.ActivityCount)
	assert.Equal(t, map[string]int{"quest": 300, "streak": 50}, stats.BySource)
}

func TestGetTodayActivity(t *testing.T) {
	repo := newMemoryRepository()
	svc, clock := newTestService(t, repo)

	clock.Advance(12 * time.Hour)
	now := clock.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	seedEntry(t, repo, "user-1", 100, "quest", todayStart.Add(time.Hour))
	seedEntry(t, repo, "user-1", 25, "streak", todayStart.Add(3*time.Hour))
	seedEntry(t, repo, "user-1", 500, "quest", todayStart.Add(-time.Hour))

	activity, err := svc.GetTodayActivity(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, activity.Count)
	assert.Equal(t, 125, activity.TotalXp)
	assert.Len(t, activity.Activities, 2)
}

func TestGetRecentActivityDefaultLimit(t *testing.T) {
	repo := newMemoryRepository()
	svc, clock := newTestService(t, repo)
	now := clock.Now()

	for i := 0; i < 30; i++ {
		seedEntry(t, repo, "user-1", 10, "quest", now.Add(time.Duration(i)*time.Minute))
	}

	entries, err := svc.GetRecentActivity(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
	// Newest first
	assert.True(t, entries[0].Timestamp.After(entries[len(entries)-1].Timestamp))
}
