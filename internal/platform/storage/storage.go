// Package storage owns the SQLite database behind the donation queue and
// the synthesis cache, plus the optional Redis cache backend.
package storage

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/errors"
)

// Open opens the SQLite database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "storage.Open", "failed to create data directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.Open", "failed to open database", err)
	}

	if err := db.AutoMigrate(&DonationEntry{}, &CacheEntry{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.Open", "failed to migrate schema", err)
	}

	return db, nil
}
