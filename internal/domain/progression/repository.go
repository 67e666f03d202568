package progression

import (
	"context"
	"errors"
	"time"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for XP ledger and profile persistence
type Repository interface {
	InsertActivity(ctx context.Context, entry *XpActivityEntry) error
	FindActivityByUser(ctx context.Context, userID string) ([]XpActivityEntry, error)
	RecentActivity(ctx context.Context, userID string, limit int) ([]XpActivityEntry, error)
	ActivitySince(ctx context.Context, userID string, since time.Time) ([]XpActivityEntry, error)
	FindProfile(ctx context.Context, userID string) (*ProfileProjection, error)
	// FindProfileForUpdate row-locks the profile so concurrent grants to
	// the same user serialize. Only valid inside Transaction.
	FindProfileForUpdate(ctx context.Context, userID string) (*ProfileProjection, error)
	UpdateProfile(ctx context.Context, profile *ProfileProjection) error
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) InsertActivity(ctx context.Context, entry *XpActivityEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindActivityByUser(ctx context.Context, userID string) ([]XpActivityEntry, error) {
	var entries []XpActivityEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) RecentActivity(ctx context.Context, userID string, limit int) ([]XpActivityEntry, error) {
	var entries []XpActivityEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *repository) ActivitySince(ctx context.Context, userID string, since time.Time) ([]XpActivityEntry, error) {
	var entries []XpActivityEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND timestamp >= ?", userID, since).
		Order("timestamp DESC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) FindProfile(ctx context.Context, userID string) (*ProfileProjection, error) {
	var profile ProfileProjection
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &profile, nil
}

func (r *repository) FindProfileForUpdate(ctx context.Context, userID string) (*ProfileProjection, error) {
	var profile ProfileProjection
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &profile, nil
}

func (r *repository) UpdateProfile(ctx context.Context, profile *ProfileProjection) error {
	// Patch only the projection fields; the row itself belongs to the
	// wider product.
	result := r.db.WithContext(ctx).Model(&ProfileProjection{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"xp":    profile.Xp,
			"level": profile.Level,
			"title": profile.Title,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: &connection.Database{DB: tx}})
	})
}
