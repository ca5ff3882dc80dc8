// Package gorm provides GORM model definitions and the GORM-backed store
package gorm

import "time"

// EntryModel is one persisted key/value pair
type EntryModel struct {
	Key       string `gorm:"column:entry_key;type:varchar(255);primaryKey"`
	Value     []byte `gorm:"type:blob;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name independent of naming strategy
func (EntryModel) TableName() string {
	return "persisted_entries"
}
