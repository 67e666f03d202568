package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XpActivityEntry is one XP grant in the append-only ledger. Immutable.
type XpActivityEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID      string    `gorm:"size:128;not null;index:idx_xp_user_ts,priority:1"`
	Amount      int       `gorm:"not null"`
	Source      string    `gorm:"size:64;not null"`
	Description string    `gorm:"type:text"`
	Timestamp   time.Time `gorm:"not null;index:idx_xp_user_ts,priority:2"`
}

// TableName specifies the table name for the XpActivityEntry model
func (XpActivityEntry) TableName() string {
	return "xp_activity_log"
}

// BeforeCreate is called before inserting a new ledger entry
func (e *XpActivityEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ProfileProjection is the derived per-user progression state. The xp,
// level and title fields are patched together on every grant so the
// level == floor(xp/1000)+1 invariant holds after each write.
type ProfileProjection struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID    string    `gorm:"size:128;not null;uniqueIndex:idx_profile_user"`
	Username  string    `gorm:"size:128"`
	Xp        int       `gorm:"not null;default:0"`
	Level     int       `gorm:"not null;default:1"`
	Title     string    `gorm:"size:64;not null;default:'Novice'"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

// TableName specifies the table name for the ProfileProjection model
func (ProfileProjection) TableName() string {
	return "user_profiles"
}

// BeforeCreate is called before inserting a new profile projection
func (p *ProfileProjection) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// GrantInput represents the input for granting XP
type GrantInput struct {
	UserID      string `json:"user_id"`
	Amount      int    `json:"amount"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

// GrantResult reports the profile state after a grant. NewTitle is set
// only when the grant crossed a level boundary.
type GrantResult struct {
	NewXp     int    `json:"new_xp"`
	NewLevel  int    `json:"new_level"`
	LeveledUp bool   `json:"leveled_up"`
	NewTitle  string `json:"new_title,omitempty"`
}

// XpStats aggregates a user's ledger entries.
type XpStats struct {
	TotalXp       int            `json:"total_xp"`
	TodayXp       int            `json:"today_xp"`
	WeekXp        int            `json:"week_xp"`
	ActivityCount int            `json:"activity_count"`
	BySource      map[string]int `json:"by_source"`
}

// TodayActivity lists entries since the start of the current UTC day.
type TodayActivity struct {
	Activities []XpActivityEntry `json:"activities"`
	TotalXp    int               `json:"total_xp"`
	Count      int               `json:"count"`
}
