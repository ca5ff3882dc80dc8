package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/snackhack/client/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoreRepository implements outbound.PersistedStore using GORM
type StoreRepository struct {
	db *gorm.DB
}

var _ outbound.PersistedStore = (*StoreRepository)(nil)

// NewStoreRepository creates a new store repository. The entries table
// must already be migrated.
func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// Save upserts value under key
func (r *StoreRepository) Save(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	model := EntryModel{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model)

	return result.Error
}

// Load returns the value stored under key
func (r *StoreRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var model EntryModel

	result := r.db.WithContext(ctx).First(&model, "entry_key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, result.Error
	}

	return model.Value, true, nil
}

// Clear deletes keys
func (r *StoreRepository) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&EntryModel{}).Error
}
