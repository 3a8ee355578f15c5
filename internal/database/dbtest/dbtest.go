// Package dbtest opens throwaway migrated SQLite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"etech-backend/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated database in a temp dir. It is removed with the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "test.db"), logger.Discard)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// UseGlobal points database.DB at db for the duration of the test.
func UseGlobal(t testing.TB, db *gorm.DB) {
	t.Helper()
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
}
