package repository

import (
	"context"
	"errors"
	"testing"

	"inventory-app/backend/internal/domain/user"

	"gorm.io/gorm"
)

func TestUserRepositoryLookupsAndPrivileges(t *testing.T) {
	db := newTestDB(t, &user.User{})
	repo := NewUserRepository(db)
	ctx := context.Background()

	staff, _ := user.NewUser("john_doe", "hash", user.RoleStaff)
	admin, _ := user.NewUser("admin1", "hash", user.RoleAdmin)
	if err := repo.Create(ctx, staff); err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if err := repo.Create(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	found, err := repo.FindByStaffID(ctx, staff.StaffIDValue())
	if err != nil || found.Username != "john_doe" {
		t.Fatalf("find by staff id: %+v (%v)", found, err)
	}
	if _, err := repo.FindByAdminID(ctx, admin.AdminIDValue()); err != nil {
		t.Fatalf("find by admin id: %v", err)
	}
	if _, err := repo.FindByUsername(ctx, "nobody"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	user.TogglePrivileges(user.RoleAdmin, found, found.StaffIDValue(), []user.Privilege{user.PrivilegeReadRecipe, user.PrivilegeDeleteRecipe})
	if err := repo.UpdatePrivileges(ctx, found); err != nil {
		t.Fatalf("update privileges: %v", err)
	}
	reloaded, _ := repo.FindByID(ctx, staff.ID)
	if reloaded.Privileges.CanReadRecipe || !reloaded.Privileges.CanDeleteRecipe {
		t.Fatalf("privileges not persisted: %+v", reloaded.Privileges)
	}

	if err := repo.Delete(ctx, staff.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, staff.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	total, _ := repo.Count(ctx)
	if total != 1 {
		t.Fatalf("expected 1 user left, got %d", total)
	}
}
