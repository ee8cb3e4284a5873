package category

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/storynest/core/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCategoryTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:category-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = gdb.AutoMigrate(&models.UserModel{}, &models.CategoryModel{}, &models.StoryModel{})
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func TestCreateCategoryDerivesSlug(t *testing.T) {
	gdb, cleanup := setupCategoryTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	cat, err := svc.Create(&CategoryDTO{Name: "Science Fiction"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if cat.Slug != "science-fiction" {
		t.Fatalf("expected slug science-fiction, got %q", cat.Slug)
	}

	// Same name again: unique name index would reject it, but the slug
	// logic itself must suffix. Use a name that collides on slug only.
	other, err := svc.Create(&CategoryDTO{Name: "Science   Fiction"})
	if err != nil {
		t.Fatalf("create colliding category: %v", err)
	}
	if !strings.HasPrefix(other.Slug, "science-fiction-") {
		t.Fatalf("expected suffixed slug, got %q", other.Slug)
	}
}

func TestUpdateCategoryFollowsName(t *testing.T) {
	gdb, cleanup := setupCategoryTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	cat, err := svc.Create(&CategoryDTO{Name: "Old Name"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(cat.ID, &CategoryDTO{Name: "New Name"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" || updated.Slug != "new-name" {
		t.Fatalf("unexpected rename result: %+v", updated)
	}
}

func TestDeleteCategoryBlockedWhileInUse(t *testing.T) {
	gdb, cleanup := setupCategoryTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	cat, err := svc.Create(&CategoryDTO{Name: "Busy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	author := models.UserModel{Username: "alice", Email: "alice@example.com", Role: models.RoleUser}
	if err := gdb.Create(&author).Error; err != nil {
		t.Fatalf("seed author: %v", err)
	}
	st := models.StoryModel{Title: "T", Content: "c", Slug: "t", AuthorID: author.ID, CategoryID: cat.ID, Status: models.StoryPending}
	if err := gdb.Create(&st).Error; err != nil {
		t.Fatalf("seed story: %v", err)
	}

	if err := svc.Delete(cat.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected deletion to be blocked, got %v", err)
	}

	if err := gdb.Delete(&st).Error; err != nil {
		t.Fatalf("remove story: %v", err)
	}
	if err := svc.Delete(cat.ID); err != nil {
		t.Fatalf("expected deletion after stories removed: %v", err)
	}
	if _, err := svc.Get(cat.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected category gone, got %v", err)
	}
}

func TestGetByIDOrSlug(t *testing.T) {
	gdb, cleanup := setupCategoryTestDB(t)
	defer cleanup()

	svc := NewService(gdb)
	cat, err := svc.Create(&CategoryDTO{Name: "Lookup"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byID, err := svc.Get(cat.ID)
	if err != nil || byID.ID != cat.ID {
		t.Fatalf("get by id failed: %v", err)
	}
	bySlug, err := svc.Get("lookup")
	if err != nil || bySlug.ID != cat.ID {
		t.Fatalf("get by slug failed: %v", err)
	}
	if _, err := svc.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
