package dto

import "time"

// LogXpRequest is the body for granting XP to the caller.
type LogXpRequest struct {
	Amount      int    `json:"amount" binding:"required"`
	Source      string `json:"source" binding:"required"`
	Description string `json:"description,omitempty"`
}

// LogXpResponse reports the profile state after a grant.
type LogXpResponse struct {
	NewXp     int    `json:"new_xp"`
	NewLevel  int    `json:"new_level"`
	LeveledUp bool   `json:"leveled_up"`
	NewTitle  string `json:"new_title,omitempty"`
}

// XpStatsResponse aggregates a user's XP ledger.
type XpStatsResponse struct {
	TotalXp       int            `json:"total_xp"`
	TodayXp       int            `json:"today_xp"`
	WeekXp        int            `json:"week_xp"`
	ActivityCount int            `json:"activity_count"`
	BySource      map[string]int `json:"by_source"`
}

// XpActivityResponse is one ledger entry.
type XpActivityResponse struct {
	ID          string    `json:"id"`
	Amount      int       `json:"amount"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TodayActivityResponse lists entries since the start of the current UTC day.
type TodayActivityResponse struct {
	Activities []XpActivityResponse `json:"activities"`
	TotalXp    int                  `json:"total_xp"`
	Count      int                  `json:"count"`
}
