package streaks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StreakRecord tracks a user's consecutive daily claims. One row per user,
// created on first claim, mutated on every subsequent claim, never deleted.
type StreakRecord struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID             string    `gorm:"size:128;not null;uniqueIndex:idx_streak_user"`
	CurrentStreak      int       `gorm:"not null;default:0"`
	LongestStreak      int       `gorm:"not null;default:0;index:idx_streak_longest"`
	LastClaimDate      time.Time `gorm:"not null"`
	TotalXpFromStreaks int       `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"not null;default:current_timestamp"`
	UpdatedAt          time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// TableName specifies the table name for the StreakRecord model
func (StreakRecord) TableName() string {
	return "user_streaks"
}

// BeforeCreate is called before inserting a new streak record
func (r *StreakRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ClaimResult is the structured outcome of a daily claim. A rejected claim
// (already claimed today) is Success=false with a Reason, not an error.
type ClaimResult struct {
	Success   bool   `json:"success"`
	XpAwarded int    `json:"xp_awarded,omitempty"`
	NewStreak int    `json:"new_streak,omitempty"`
	StreakDay int    `json:"streak_day,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// StreakStatus is the read-only projection of a user's streak state.
type StreakStatus struct {
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastClaimDate      *time.Time `json:"last_claim_date"`
	CanClaimToday      bool       `json:"can_claim_today"`
	TotalXpFromStreaks int        `json:"total_xp_from_streaks"`
}

// LeaderboardEntry is one row of the longest-streak leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}
