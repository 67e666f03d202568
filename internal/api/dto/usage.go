package dto

import "time"

// TrackUsageRequest is the body for recording a usage event.
type TrackUsageRequest struct {
	Action   string                 `json:"action" binding:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TrackUsageResponse reports whether the event was stored.
type TrackUsageResponse struct {
	Success bool `json:"success"`
}

// RateLimitResponse answers an advisory rate-limit query.
type RateLimitResponse struct {
	Allowed   bool       `json:"allowed"`
	Remaining int        `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
	Count     int        `json:"count"`
	Limit     int        `json:"limit"`
}

// UsageStatsResponse aggregates a user's recorded actions.
type UsageStatsResponse struct {
	TotalActions    int            `json:"total_actions"`
	TodayActions    int            `json:"today_actions"`
	WeekActions     int            `json:"week_actions"`
	ActionBreakdown map[string]int `json:"action_breakdown"`
	FirstAction     *time.Time     `json:"first_action,omitempty"`
	LastAction      *time.Time     `json:"last_action,omitempty"`
}
