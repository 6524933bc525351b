// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"testing"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/pkg/config"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// A single connection keeps every goroutine on the same in-memory file.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.OpenGorm(sqlite.Open("file::memory:"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given display name and privacy
func CreateUser(t *testing.T, db *gorm.DB, name string, private bool) *models.User {
	t.Helper()

	user := &models.User{
		DisplayName: name,
		Email:       name + "@example.com",
		IsPrivate:   private,
		Role:        models.RoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}
