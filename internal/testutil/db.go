// Package testutil provides shared databases, fixtures and images for tests.
package testutil

import (
	"testing"

	"yatube/internal/config"
	"yatube/internal/database"

	"gorm.io/gorm"
)

// TestingT is the subset of testing.TB the helpers need.
type TestingT interface {
	Helper()
	Fatalf(string, ...any)
	Cleanup(func())
}

var _ TestingT = (*testing.T)(nil)

// NewSQLiteDB opens a private in-memory database with the full schema.
// The pool is pinned to one connection so every query sees the same database.
func NewSQLiteDB(t TestingT) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBPath:       "file::memory:",
		DBSchemaMode: "auto",
	}
	cfg.SetDefaults()

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
