package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/usage"
	"github.com/Akogare-Cafe/vibebuff-sub007/pkg/logger"
	"github.com/stretchr/testify/assert"
)

// stubUsageService counts prune invocations.
type stubUsageService struct {
	mu         sync.Mutex
	pruneCalls int
}

func (s *stubUsageService) CheckLimit(_ context.Context, _, _ string) (*usage.CheckResult, error) {
	return &usage.CheckResult{Allowed: true}, nil
}

func (s *stubUsageService) Record(_ context.Context, _ usage.RecordInput) (*usage.RecordResult, error) {
	return &usage.RecordResult{Success: true}, nil
}

func (s *stubUsageService) CountInWindow(_ context.Context, _, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

func (s *stubUsageService) GetUserStats(_ context.Context, _ string) (*usage.UserStats, error) {
	return &usage.UserStats{}, nil
}

func (s *stubUsageService) PruneOlderThan(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneCalls++
	return 0, nil
}

func (s *stubUsageService) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneCalls
}

func TestSchedulerPrunesOnStart(t *testing.T) {
	svc := &stubUsageService{}
	s := NewScheduler(svc, time.Hour, logger.NewNop())

	s.Start()
	defer s.Stop()

	// The first prune runs synchronously before the ticker loop spins up
	assert.Equal(t, 1, svc.calls())
}

func TestSchedulerDefaultsInterval(t *testing.T) {
	s := NewScheduler(&stubUsageService{}, 0, logger.NewNop())
	assert.Equal(t, time.Hour, s.interval)
}
