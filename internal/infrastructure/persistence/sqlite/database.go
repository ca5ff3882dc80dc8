// Package sqlite opens the on-disk database behind the default persisted
// store.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	gormModels "github.com/snackhack/client/internal/infrastructure/persistence/gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// busyTimeoutMS bounds how long one invocation waits on another's write lock.
const busyTimeoutMS = 5000

// dsn builds the connection string. An empty path gives a private
// in-memory database.
func dsn(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, busyTimeoutMS)
}

// Open connects to the database at path, creating parent directories and
// the entries table as needed.
func Open(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if path != "" && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	// One connection keeps every write on the same handle; an in-memory
	// database would otherwise be split across connections.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&gormModels.EntryModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate session database: %w", err)
	}
	return db, nil
}

// NewStore opens the database at path and returns a store over it
func NewStore(path string, logLevel logger.LogLevel) (*gormModels.StoreRepository, *gorm.DB, error) {
	db, err := Open(path, logLevel)
	if err != nil {
		return nil, nil, err
	}
	return gormModels.NewStoreRepository(db), db, nil
}

// ParseLogLevel maps storage.log_level to a GORM level. Anything unknown
// silences GORM so SQL never reaches the terminal by accident.
func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// Close releases the underlying connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
