package database

import (
	"fmt"
	"log/slog"
	"strings"

	"offline-gateway/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pragmas are applied to every connection. busy_timeout makes a writer wait
// for the lock instead of failing with SQLITE_BUSY.
var pragmas = []string{"busy_timeout(5000)", "journal_mode(WAL)"}

// DSN appends the connection pragmas to path.
func DSN(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Open opens the SQLite database backing the cache store and runs migrations.
// Using glebarez/sqlite which is a pure Go implementation (no CGO required)
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// SQLite allows a single writer; one pooled connection serializes
	// writes inside database/sql.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("Cache database connected and migrated", slog.String("path", path))
	return db, nil
}

// Migrate creates or updates the cache tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.CacheGeneration{},
		&models.CachedEntry{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
