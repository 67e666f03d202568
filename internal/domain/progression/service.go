package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"
)

var ErrInvalidAmount = errors.New("xp amount must be positive")

const defaultActivityLimit = 20

type Service interface {
	// Grant appends a ledger entry and atomically re-derives the profile
	// projection (xp, level, title). A missing profile is not an error:
	// the grant is acknowledged with a synthesized, non-persisted result.
	Grant(ctx context.Context, input GrantInput) (*GrantResult, error)
	GetXpStats(ctx context.Context, userID string) (*XpStats, error)
	GetRecentActivity(ctx context.Context, userID string, limit int) ([]XpActivityEntry, error)
	GetTodayActivity(ctx context.Context, userID string) (*TodayActivity, error)
	GetProfile(ctx context.Context, userID string) (*ProfileProjection, error)
}

type service struct {
	repo   Repository
	titles TitleTable
	clock  quartz.Clock
	logger *zap.Logger
}

func NewService(repo Repository, titles TitleTable, clock quartz.Clock, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		titles: titles,
		clock:  clock,
		logger: logger,
	}
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) Grant(ctx context.Context, input GrantInput) (*GrantResult, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry := &XpActivityEntry{
		UserID:      input.UserID,
		Amount:      input.Amount,
		Source:      input.Source,
		Description: input.Description,
		Timestamp:   s.clock.Now().UTC(),
	}
	if err := s.repo.InsertActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append xp ledger entry: %w", err)
	}

	var result *GrantResult
	err := s.repo.Transaction(ctx, func(txRepo Repository) error {
		profile, err := txRepo.FindProfileForUpdate(ctx, input.UserID)
		if err != nil {
			return err
		}
		if profile == nil {
			// No profile to project onto; acknowledge the grant without
			// persisting a projection.
			result = &GrantResult{
				NewXp:    input.Amount,
				NewLevel: 1,
			}
			return nil
		}

		oldLevel := profile.Level
		profile.Xp += input.Amount
		profile.Level = LevelForXp(profile.Xp)
		profile.Title = s.titles.TitleForLevel(profile.Level, profile.Title)

		if err := txRepo.UpdateProfile(ctx, profile); err != nil {
			return err
		}

		result = &GrantResult{
			NewXp:     profile.Xp,
			NewLevel:  profile.Level,
			LeveledUp: profile.Level > oldLevel,
		}
		if result.LeveledUp {
			result.NewTitle = profile.Title
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to project xp grant: %w", err)
	}

	if result.LeveledUp {
		s.logger.Info("User leveled up",
			zap.String("user_id", input.UserID),
			zap.Int("new_level", result.NewLevel),
			zap.String("title", result.NewTitle))
	}

	return result, nil
}

func (s *service) GetXpStats(ctx context.Context, userID string) (*XpStats, error) {
	entries, err := s.repo.FindActivityByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load xp ledger: %w", err)
	}

	todayStart := startOfDayUTC(s.clock.Now())
	weekStart := todayStart.Add(-7 * 24 * time.Hour)

	stats := &XpStats{
		ActivityCount: len(entries),
		BySource:      make(map[string]int),
	}
	for i := range entries {
		e := &entries[i]
		stats.TotalXp += e.Amount
		stats.BySource[e.Source] += e.Amount
		if !e.Timestamp.Before(todayStart) {
			stats.TodayXp += e.Amount
		}
		if !e.Timestamp.Before(weekStart) {
			stats.WeekXp += e.Amount
		}
	}

	return stats, nil
}

func (s *service) GetRecentActivity(ctx context.Context, userID string, limit int) ([]XpActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return s.repo.RecentActivity(ctx, userID, limit)
}

func (s *service) GetTodayActivity(ctx context.Context, userID string) (*TodayActivity, error) {
	entries, err := s.repo.ActivitySince(ctx, userID, startOfDayUTC(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to load today's xp activity: %w", err)
	}

	activity := &TodayActivity{
		Activities: entries,
		Count:      len(entries),
	}
	for i := range entries {
		activity.TotalXp += entries[i].Amount
	}

	return activity, nil
}

func (s *service) GetProfile(ctx context.Context, userID string) (*ProfileProjection, error) {
	return s.repo.FindProfile(ctx, userID)
}
