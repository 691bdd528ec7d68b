package database

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stashbin/stashbin/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDatabase returns an in-memory sqlite database with the schema
// applied. Connections are capped at one so every caller sees the same
// memory database.
func NewTestDatabase(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to init db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to init db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.File{}); err != nil {
		tb.Fatalf("failed to migrate db: %v", err)
	}

	return db
}
