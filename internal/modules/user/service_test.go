package user

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUserTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:user-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.UserModel{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func seedUser(t *testing.T, gdb *gorm.DB, username string, role models.Role) *models.UserModel {
	t.Helper()
	u := models.UserModel{
		Username:   username,
		Email:      username + "@example.com",
		Role:       role,
		IsVerified: true,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return &u
}

func TestPromoteAndDemote(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	u := seedUser(t, gdb, "alice", models.RoleUser)

	promoted, err := svc.Promote(u.ID)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.Role != models.RoleAdmin {
		t.Fatalf("expected admin, got %s", promoted.Role)
	}

	demoted, err := svc.Demote(u.ID)
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if demoted.Role != models.RoleUser {
		t.Fatalf("expected user, got %s", demoted.Role)
	}
}

func TestSuperAdminIsImmutable(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	root := seedUser(t, gdb, "root", models.RoleSuperAdmin)

	if _, err := svc.Demote(root.ID); !errors.Is(err, ErrSuperAdminImmutable) {
		t.Fatalf("expected super-admin demotion to be forbidden, got %v", err)
	}
	if _, err := svc.Promote(root.ID); !errors.Is(err, ErrSuperAdminImmutable) {
		t.Fatalf("expected super-admin promotion to be forbidden, got %v", err)
	}
	if err := svc.Delete(root.ID, models.RoleSuperAdmin); !errors.Is(err, ErrSuperAdminImmutable) {
		t.Fatalf("expected super-admin deletion to be forbidden, got %v", err)
	}

	var stored models.UserModel
	if err := gdb.First(&stored, "id = ?", root.ID).Error; err != nil {
		t.Fatalf("load super-admin: %v", err)
	}
	if stored.Role != models.RoleSuperAdmin {
		t.Fatalf("expected role to stay super-admin, got %s", stored.Role)
	}
}

func TestAdminCannotDeleteOtherAdmin(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	target := seedUser(t, gdb, "bob", models.RoleAdmin)

	if err := svc.Delete(target.ID, models.RoleAdmin); !errors.Is(err, ErrAdminDeletesAdmin) {
		t.Fatalf("expected admin-deletes-admin to be forbidden, got %v", err)
	}

	if err := svc.Delete(target.ID, models.RoleSuperAdmin); err != nil {
		t.Fatalf("expected super-admin to delete an admin: %v", err)
	}
}

func TestDeleteUnknownUser(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	if err := svc.Delete("missing-id", models.RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPaginates(t *testing.T) {
	gdb, cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	for i := 0; i < 15; i++ {
		seedUser(t, gdb, fmt.Sprintf("user%02d", i), models.RoleUser)
	}

	users, pag, err := svc.List(pagination.Query{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 5 {
		t.Fatalf("expected 5 users on page 2, got %d", len(users))
	}
	if pag.TotalPages != 2 || pag.CurrentPage != 2 {
		t.Fatalf("unexpected pagination: %+v", pag)
	}
}
