package database

import (
	"path/filepath"
	"testing"

	"tradedesk/internal/config"
	"tradedesk/internal/logger"
	"tradedesk/internal/models"
)

func init() {
	logger.Init("test")
}

func TestConfig_URLs(t *testing.T) {
	cfg := NewConfig(&config.Config{
		DBDriver:   "postgres",
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "trades",
		DBSSLMode:  "disable",
	})

	if got := cfg.DSN(); got != "host=db port=5432 user=u password=p dbname=trades sslmode=disable" {
		t.Errorf("unexpected DSN: %s", got)
	}
	if got := cfg.MigrateURL(); got != "postgres://u:p@db:5432/trades?sslmode=disable" {
		t.Errorf("unexpected migrate URL: %s", got)
	}
}

func TestManager_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradedesk.db")
	m, err := NewManager(&Config{Driver: "sqlite", SQLitePath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = m.Close() }()

	if err := m.RunMigrations(); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	if !m.DB().Migrator().HasTable(&models.Holding{}) {
		t.Error("expected holdings table after migration")
	}
}

func TestManager_UnknownDriver(t *testing.T) {
	if _, err := NewManager(&Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
