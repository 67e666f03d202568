package streaks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/progression"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/cache"
	"github.com/coder/quartz"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReasonAlreadyClaimed is the business reason for a same-day repeat claim.
const ReasonAlreadyClaimed = "Already claimed today"

// XpSourceStreak labels streak rewards in the XP ledger.
const XpSourceStreak = "streak"

// XpGranter is the slice of the progression service the streak engine needs.
type XpGranter interface {
	Grant(ctx context.Context, input progression.GrantInput) (*progression.GrantResult, error)
}

// ProfileReader resolves display names for the leaderboard.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*progression.ProfileProjection, error)
}

type Service interface {
	// Claim runs the daily-claim state machine for a user. The whole
	// read-decide-write sequence executes in one serialized transaction so
	// two same-day claims cannot both advance the streak.
	Claim(ctx context.Context, userID string) (*ClaimResult, error)
	GetStreak(ctx context.Context, userID string) (*StreakStatus, error)
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type service struct {
	repo           Repository
	xp             XpGranter
	profiles       ProfileReader
	rewards        RewardTable
	redis          *cache.RedisClient
	leaderboardTTL time.Duration
	clock          quartz.Clock
	logger         *zap.Logger
}

// ServiceConfig carries the streak engine's injected tables and tunables.
type ServiceConfig struct {
	Rewards        RewardTable
	LeaderboardTTL time.Duration
}

func NewService(repo Repository, xp XpGranter, profiles ProfileReader, cfg ServiceConfig, redis *cache.RedisClient, clock quartz.Clock, logger *zap.Logger) Service {
	rewards := cfg.Rewards
	if len(rewards) == 0 {
		rewards = DefaultRewardTable()
	}
	ttl := cfg.LeaderboardTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		repo:           repo,
		xp:             xp,
		profiles:       profiles,
		rewards:        rewards,
		redis:          redis,
		leaderboardTTL: ttl,
		clock:          clock,
		logger:         logger,
	}
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) Claim(ctx context.Context, userID string) (*ClaimResult, error) {
	now := s.clock.Now().UTC()
	today := startOfDayUTC(now)
	yesterday := today.AddDate(0, 0, -1)

	var result *ClaimResult
	err := s.repo.Transaction(ctx, func(txRepo Repository) error {
		record, err := txRepo.FindByUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if record == nil {
			day, reward := s.rewards.ForStreak(1)
			record = &StreakRecord{
				UserID:             userID,
				CurrentStreak:      1,
				LongestStreak:      1,
				LastClaimDate:      now,
				TotalXpFromStreaks: reward,
			}
			if err := txRepo.Create(ctx, record); err != nil {
				// FOR UPDATE cannot lock an absent row, so two first-ever
				// claims can both read nil; the loser lands on the unique
				// index. That is a same-day repeat, not a fault.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					result = &ClaimResult{Success: false, Reason: ReasonAlreadyClaimed}
					return nil
				}
				return err
			}
			result = &ClaimResult{Success: true, XpAwarded: reward, NewStreak: 1, StreakDay: day}
			return nil
		}

		lastClaimDay := startOfDayUTC(record.LastClaimDate)
		if !lastClaimDay.Before(today) {
			result = &ClaimResult{Success: false, Reason: ReasonAlreadyClaimed}
			return nil
		}

		newStreak := 1
		if lastClaimDay.Equal(yesterday) {
			newStreak = record.CurrentStreak + 1
		}
		day, reward := s.rewards.ForStreak(newStreak)

		record.CurrentStreak = newStreak
		if newStreak > record.LongestStreak {
			record.LongestStreak = newStreak
		}
		record.LastClaimDate = now
		record.TotalXpFromStreaks += reward

		if err := txRepo.Update(ctx, record); err != nil {
			return err
		}

		result = &ClaimResult{Success: true, XpAwarded: reward, NewStreak: newStreak, StreakDay: day}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim daily reward: %w", err)
	}

	if result.Success {
		if _, err := s.xp.Grant(ctx, progression.GrantInput{
			UserID:      userID,
			Amount:      result.XpAwarded,
			Source:      XpSourceStreak,
			Description: fmt.Sprintf("Daily streak reward (day %d)", result.StreakDay),
		}); err != nil {
			return nil, fmt.Errorf("failed to grant streak xp: %w", err)
		}

		s.logger.Info("Daily reward claimed",
			zap.String("user_id", userID),
			zap.Int("streak", result.NewStreak),
			zap.Int("xp_awarded", result.XpAwarded))
	}

	return result, nil
}

func (s *service) GetStreak(ctx context.Context, userID string) (*StreakStatus, error) {
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak record: %w", err)
	}
	if record == nil {
		return &StreakStatus{CanClaimToday: true}, nil
	}

	today := startOfDayUTC(s.clock.Now())
	lastClaim := record.LastClaimDate

	return &StreakStatus{
		CurrentStreak:      record.CurrentStreak,
		LongestStreak:      record.LongestStreak,
		LastClaimDate:      &lastClaim,
		CanClaimToday:      startOfDayUTC(lastClaim).Before(today),
		TotalXpFromStreaks: record.TotalXpFromStreaks,
	}, nil
}

func (s *service) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("streaks:leaderboard:%d", limit)
	if s.redis != nil {
		var cached []LeaderboardEntry
		if err := s.redis.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	records, err := s.repo.TopByLongest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(records))
	for i, record := range records {
		username := "Anonymous"
		profile, err := s.profiles.GetProfile(ctx, record.UserID)
		if err != nil {
			s.logger.Error("Failed to resolve leaderboard profile",
				zap.String("user_id", record.UserID),
				zap.Error(err))
		} else if profile != nil && profile.Username != "" {
			username = profile.Username
		}

		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			UserID:        record.UserID,
			Username:      username,
			CurrentStreak: record.CurrentStreak,
			LongestStreak: record.LongestStreak,
		})
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, cacheKey, entries, s.leaderboardTTL); err != nil {
			s.logger.Error("Failed to cache streak leaderboard", zap.Error(err))
		}
	}

	return entries, nil
}
