package streaks

import (
	"context"
	"errors"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for streak record persistence
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*StreakRecord, error)
	// FindByUserForUpdate takes a row lock so the read-decide-write claim
	// sequence serializes per user. Only valid inside Transaction.
	FindByUserForUpdate(ctx context.Context, userID string) (*StreakRecord, error)
	Create(ctx context.Context, record *StreakRecord) error
	Update(ctx context.Context, record *StreakRecord) error
	TopByLongest(ctx context.Context, limit int) ([]StreakRecord, error)
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) FindByUser(ctx context.Context, userID string) (*StreakRecord, error) {
	var record StreakRecord
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &record, nil
}

func (r *repository) FindByUserForUpdate(ctx context.Context, userID string) (*StreakRecord, error) {
	var record StreakRecord
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &record, nil
}

func (r *repository) Create(ctx context.Context, record *StreakRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) Update(ctx context.Context, record *StreakRecord) error {
	result := r.db.WithContext(ctx).Save(record)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) TopByLongest(ctx context.Context, limit int) ([]StreakRecord, error) {
	var records []StreakRecord
	err := r.db.WithContext(ctx).
		Order("longest_streak DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: &connection.Database{DB: tx}})
	})
}
