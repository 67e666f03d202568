package dto

import "time"

// ClaimStreakResponse is the outcome of a daily claim attempt.
type ClaimStreakResponse struct {
	Success   bool   `json:"success"`
	XpAwarded int    `json:"xp_awarded,omitempty"`
	NewStreak int    `json:"new_streak,omitempty"`
	StreakDay int    `json:"streak_day,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// StreakStatusResponse is the read-only view of a user's streak.
type StreakStatusResponse struct {
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastClaimDate      *time.Time `json:"last_claim_date"`
	CanClaimToday      bool       `json:"can_claim_today"`
	TotalXpFromStreaks int        `json:"total_xp_from_streaks"`
}

// LeaderboardEntryResponse is one row of the streak leaderboard.
type LeaderboardEntryResponse struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// LeaderboardResponse wraps the leaderboard rows.
type LeaderboardResponse struct {
	Entries []LeaderboardEntryResponse `json:"entries"`
}
