// Package sqlite provides the SQLite-backed registration record store.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/sundayfest/housegate/internal/platform/storage/sqlitemigrate"
	"github.com/sundayfest/housegate/internal/storage"
	"github.com/sundayfest/housegate/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists attendees, tickets, and registrars in a single SQLite file,
// so registration and redemption share one transaction and visibility
// boundary.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite registration store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer; one pooled connection keeps concurrent
	// registrations and redemptions queued instead of failing with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// isUniqueViolation reports whether err is a primary-key or unique-index
// constraint failure on the named column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	constraint := false
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			constraint = true
		}
	}
	message := strings.ToLower(err.Error())
	if !constraint && !strings.Contains(message, "unique constraint failed") {
		return false
	}
	return strings.Contains(message, strings.ToLower(column))
}

var (
	_ storage.RegistrationStore = (*Store)(nil)
	_ storage.TicketStore       = (*Store)(nil)
	_ storage.RegistrarStore    = (*Store)(nil)
	_ storage.StatsStore        = (*Store)(nil)
)
