package usage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UsageEvent is one recorded action for an identifier. Rows are immutable
// once written; the only delete path is retention pruning.
type UsageEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Identifier string         `gorm:"size:128;not null;index:idx_usage_ident_action_ts,priority:1"`
	UserID     string         `gorm:"size:128;index:idx_usage_user"`
	SessionID  string         `gorm:"size:128"`
	Action     string         `gorm:"size:64;not null;index:idx_usage_ident_action_ts,priority:2"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	Timestamp  time.Time      `gorm:"not null;index:idx_usage_ident_action_ts,priority:3;index:idx_usage_ts"`
}

// TableName specifies the table name for the UsageEvent model
func (UsageEvent) TableName() string {
	return "usage_events"
}

// BeforeCreate is called before inserting a new usage event
func (e *UsageEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// RecordInput represents the input for recording a usage event
type RecordInput struct {
	UserID    string                 `json:"user_id"`
	SessionID string                 `json:"session_id"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RecordResult reports whether the event was stored. Success is false when
// no identifier could be derived; that is not an error.
type RecordResult struct {
	Success bool `json:"success"`
}

// CheckResult is the advisory answer to a rate-limit query.
type CheckResult struct {
	Allowed   bool       `json:"allowed"`
	Remaining int        `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at"`
	Count     int        `json:"count"`
	Limit     int        `json:"limit"`
}

// UserStats aggregates a user's recorded actions over trailing windows.
type UserStats struct {
	TotalActions    int            `json:"total_actions"`
	TodayActions    int            `json:"today_actions"`
	WeekActions     int            `json:"week_actions"`
	ActionBreakdown map[string]int `json:"action_breakdown"`
	FirstAction     *time.Time     `json:"first_action,omitempty"`
	LastAction      *time.Time     `json:"last_action,omitempty"`
}
