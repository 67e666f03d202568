package usage

import (
	"context"
	"time"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/persistence/postgres/connection"
)

// Repository defines the interface for usage event persistence
type Repository interface {
	Insert(ctx context.Context, event *UsageEvent) error
	CountSince(ctx context.Context, identifier, action string, since time.Time) (int64, error)
	OldestSince(ctx context.Context, identifier, action string, since time.Time) (*time.Time, error)
	FindByUser(ctx context.Context, userID string) ([]UsageEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, event *UsageEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) CountSince(ctx context.Context, identifier, action string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UsageEvent{}).
		Where("identifier = ? AND action = ? AND timestamp > ?", identifier, action, since).
		Count(&count).Error
	return count, err
}

func (r *repository) OldestSince(ctx context.Context, identifier, action string, since time.Time) (*time.Time, error) {
	var event UsageEvent
	result := r.db.WithContext(ctx).
		Where("identifier = ? AND action = ? AND timestamp > ?", identifier, action, since).
		Order("timestamp ASC").
		Limit(1).
		Find(&event)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &event.Timestamp, nil
}

func (r *repository) FindByUser(ctx context.Context, userID string) ([]UsageEvent, error) {
	var events []UsageEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&events).Error
	return events, err
}

// DeleteOlderThan removes at most limit expired rows. Postgres has no
// DELETE ... LIMIT, so the batch is bounded through a keyed subquery.
func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM usage_events WHERE id IN (
			SELECT id FROM usage_events WHERE timestamp < ? LIMIT ?
		)`, cutoff, limit)
	return result.RowsAffected, result.Error
}
