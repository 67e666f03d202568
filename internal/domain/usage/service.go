package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"
)

type Service interface {
	// CheckLimit answers an advisory allow/deny for (identifier, action).
	// It reserves nothing: two concurrent callers can both see allowed and
	// both record, so the quota can transiently overshoot by the number of
	// simultaneous racers. This is abuse deterrence, not billing
	// enforcement.
	CheckLimit(ctx context.Context, identifier, action string) (*CheckResult, error)
	Record(ctx context.Context, input RecordInput) (*RecordResult, error)
	CountInWindow(ctx context.Context, identifier, action string, window time.Duration) (int64, error)
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
	// PruneOlderThan deletes up to one batch of events past retention.
	// Safe to call on any schedule; an empty run deletes nothing.
	PruneOlderThan(ctx context.Context) (int64, error)
}

// ServiceConfig carries the tunables injected at construction.
type ServiceConfig struct {
	Policies       PolicyTable
	Retention      time.Duration
	PruneBatchSize int
}

type service struct {
	repo       Repository
	policies   PolicyTable
	retention  time.Duration
	pruneBatch int
	clock      quartz.Clock
	logger     *zap.Logger
}

func NewService(repo Repository, cfg ServiceConfig, clock quartz.Clock, logger *zap.Logger) Service {
	retention := cfg.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	pruneBatch := cfg.PruneBatchSize
	if pruneBatch <= 0 {
		pruneBatch = 1000
	}
	return &service{
		repo:       repo,
		policies:   cfg.Policies,
		retention:  retention,
		pruneBatch: pruneBatch,
		clock:      clock,
		logger:     logger,
	}
}

func (s *service) CheckLimit(ctx context.Context, identifier, action string) (*CheckResult, error) {
	// No identifier means a fully anonymous caller; fail open rather than
	// blocking the request path.
	if identifier == "" {
		return &CheckResult{Allowed: true, Remaining: AnonymousRemaining}, nil
	}

	policy := s.policies.Lookup(action)
	windowStart := s.clock.Now().Add(-policy.Window)

	count, err := s.repo.CountSince(ctx, identifier, action, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count usage in window: %w", err)
	}

	remaining := policy.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	var resetAt *time.Time
	if count > 0 {
		oldest, err := s.repo.OldestSince(ctx, identifier, action, windowStart)
		if err != nil {
			return nil, fmt.Errorf("failed to find oldest usage in window: %w", err)
		}
		if oldest != nil {
			reset := oldest.Add(policy.Window)
			resetAt = &reset
		}
	}

	return &CheckResult{
		Allowed:   int(count) < policy.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
		Count:     int(count),
		Limit:     policy.Max,
	}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*RecordResult, error) {
	identifier := input.UserID
	if identifier == "" {
		identifier = input.SessionID
	}
	if identifier == "" {
		return &RecordResult{Success: false}, nil
	}

	event := &UsageEvent{
		Identifier: identifier,
		UserID:     input.UserID,
		SessionID:  input.SessionID,
		Action:     input.Action,
		Timestamp:  s.clock.Now().UTC(),
	}
	if input.Metadata != nil {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			s.logger.Warn("Dropping unencodable usage metadata",
				zap.String("action", input.Action),
				zap.Error(err))
		} else {
			event.Metadata = raw
		}
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record usage event: %w", err)
	}

	return &RecordResult{Success: true}, nil
}

func (s *service) CountInWindow(ctx context.Context, identifier, action string, window time.Duration) (int64, error) {
	return s.repo.CountSince(ctx, identifier, action, s.clock.Now().Add(-window))
}

func (s *service) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	events, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage events: %w", err)
	}

	now := s.clock.Now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &UserStats{
		TotalActions:    len(events),
		ActionBreakdown: make(map[string]int),
	}
	for i := range events {
		e := &events[i]
		stats.ActionBreakdown[e.Action]++
		if e.Timestamp.After(dayAgo) {
			stats.TodayActions++
		}
		if e.Timestamp.After(weekAgo) {
			stats.WeekActions++
		}
	}

	// Events come back newest first
	if len(events) > 0 {
		stats.LastAction = &events[0].Timestamp
		stats.FirstAction = &events[len(events)-1].Timestamp
	}

	return stats, nil
}

func (s *service) PruneOlderThan(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.retention)

	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff, s.pruneBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage events: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("Pruned expired usage events",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}

	return deleted, nil
}
