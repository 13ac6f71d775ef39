package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/pkg/database"
)

// setupTestDB opens an in-memory sqlite with the full schema. A single
// connection keeps every query on the same memory database.
func setupTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedUsers(tb testing.TB, db *gorm.DB, n int) []model.User {
	tb.Helper()
	users := make([]model.User, n)
	for i := range users {
		users[i] = model.User{
			Username:     fmt.Sprintf("u%05d", i),
			Email:        fmt.Sprintf("u%05d@example.com", i),
			PasswordHash: "x",
		}
	}
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		tb.Fatalf("seed users: %v", err)
	}
	return users
}
