package config

import (
	"path/filepath"
	"testing"
	"time"
)

func disableEnvFiles(t *testing.T) {
	t.Helper()
	SetEnvFileLoadingForTest(false)
	t.Cleanup(func() {
		SetEnvFileLoadingForTest(true)
	})
}

func TestLoadDefaults(t *testing.T) {
	disableEnvFiles(t)
	t.Setenv("APP_MODE", "")
	t.Setenv("LOCAL_SQLITE_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != ModeOnline {
		t.Fatalf("expected online mode by default, got %s", cfg.Mode)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port %s", cfg.Server.Port)
	}
	if cfg.Auth.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl %s", cfg.Auth.AccessTTL)
	}
	if cfg.Report.RetentionDays != 365 || cfg.Report.CleanupCron != "0 3 * * *" {
		t.Fatalf("unexpected report config %+v", cfg.Report)
	}
	if !filepath.IsAbs(cfg.Local.DBPath) {
		t.Fatalf("expected absolute sqlite path, got %s", cfg.Local.DBPath)
	}
	if cfg.RedisEnabled() {
		t.Fatalf("redis should be disabled without endpoint")
	}
}

func TestLoadLocalMode(t *testing.T) {
	disableEnvFiles(t)
	dbPath := filepath.Join(t.TempDir(), "local.db")
	t.Setenv("APP_MODE", " LOCAL ")
	t.Setenv("LOCAL_SQLITE_PATH", dbPath)
	t.Setenv("REDIS_ENDPOINT", "127.0.0.1:6379")
	t.Setenv("REPORT_RETENTION_DAYS", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsLocal() {
		t.Fatalf("expected local mode, got %s", cfg.Mode)
	}
	if cfg.Local.DBPath != dbPath {
		t.Fatalf("expected sqlite path %s, got %s", dbPath, cfg.Local.DBPath)
	}
	if cfg.RedisEnabled() {
		t.Fatalf("local mode must not use redis")
	}
	if cfg.Report.RetentionDays != 0 {
		t.Fatalf("negative retention should clamp to 0, got %d", cfg.Report.RetentionDays)
	}
}

func TestLoadUnknownModeFallsBackToOnline(t *testing.T) {
	disableEnvFiles(t)
	t.Setenv("APP_MODE", "staging")
	t.Setenv("JWT_ACCESS_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != ModeOnline {
		t.Fatalf("expected fallback to online, got %s", cfg.Mode)
	}
	if cfg.Auth.AccessTTL != 30*time.Minute {
		t.Fatalf("expected 30m access ttl, got %s", cfg.Auth.AccessTTL)
	}
}
