package app

import (
	"context"
	"path/filepath"
	"testing"

	"inventory-app/backend/internal/config"
	"inventory-app/backend/internal/repository"
)

func TestInitResourcesLocalModeCreatesAdminOnce(t *testing.T) {
	ctx := context.Background()
	cfg := config.RuntimeConfig{
		Mode: config.ModeLocal,
		Local: config.LocalRuntime{
			DBPath:   filepath.Join(t.TempDir(), "nested", "inventory.db"),
			Username: "local-admin",
			Password: "password123",
		},
	}

	first, err := InitResourcesWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("init resources: %v", err)
	}
	firstID := first.Config.Local.UserID
	if firstID == 0 {
		t.Fatalf("expected local admin id to be populated")
	}
	if first.Redis != nil {
		t.Fatalf("local mode must not connect redis")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := InitResourcesWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen resources: %v", err)
	}
	defer second.Close()
	if second.Config.Local.UserID != firstID {
		t.Fatalf("expected the same admin on reopen, got %d vs %d", second.Config.Local.UserID, firstID)
	}

	count, err := repository.NewUserRepository(second.DBConn()).Count(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one user, got %d", count)
	}

	admin, err := repository.NewUserRepository(second.DBConn()).FindByID(ctx, firstID)
	if err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Fatalf("local user must be an admin, got role %s", admin.Role)
	}
}

func TestCloseNilResources(t *testing.T) {
	var r *Resources
	if err := r.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
	if r.DBConn() != nil {
		t.Fatalf("nil resources must return nil db")
	}
}
