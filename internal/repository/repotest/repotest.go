// Package repotest opens throwaway migrated databases for tests.
package repotest

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
)

// NewDB returns a migrated SQLite database that lives in t.TempDir.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "dreamer.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedBotSettings inserts the four gender/style combinations.
func SeedBotSettings(t testing.TB, db *gorm.DB) []domain.BotSettings {
	t.Helper()
	settings := []domain.BotSettings{
		{Gender: domain.BotGenderMale, Style: domain.BotStyleEastern},
		{Gender: domain.BotGenderMale, Style: domain.BotStyleWestern},
		{Gender: domain.BotGenderFemale, Style: domain.BotStyleEastern},
		{Gender: domain.BotGenderFemale, Style: domain.BotStyleWestern},
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("seed bot settings: %v", err)
	}
	return settings
}

// CreateUser inserts a free email user with the given email and nickname.
func CreateUser(t testing.TB, db *gorm.DB, email, nickname string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Nickname: nickname, Provider: domain.ProviderEmail, SubscriptionStatus: domain.SubscriptionFree, IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
