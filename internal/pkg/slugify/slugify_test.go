package slugify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello-world"},
		{"  Trimmed  Title  ", "trimmed-title"},
		{"already-a-slug", "already-a-slug"},
		{"MiXeD CaSe 42", "mixed-case-42"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Make(tc.in); got != tc.want {
			t.Errorf("Make(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type slugRow struct {
	ID   string `gorm:"primaryKey"`
	Slug string `gorm:"uniqueIndex"`
}

func (slugRow) TableName() string { return "stories" }

func setupSlugTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:slugify-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&slugRow{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func TestUniqueReturnsPlainSlugWhenFree(t *testing.T) {
	gdb, cleanup := setupSlugTestDB(t)
	defer cleanup()

	slug, err := Unique(gdb, "stories", "Hello, World!", "")
	if err != nil {
		t.Fatalf("unique slug: %v", err)
	}
	if slug != "hello-world" {
		t.Fatalf("expected hello-world, got %q", slug)
	}
}

func TestUniqueAppendsSuffixOnCollision(t *testing.T) {
	gdb, cleanup := setupSlugTestDB(t)
	defer cleanup()

	if err := gdb.Create(&slugRow{ID: "a", Slug: "hello-world"}).Error; err != nil {
		t.Fatalf("failed to seed slug: %v", err)
	}

	slug, err := Unique(gdb, "stories", "Hello, World!", "")
	if err != nil {
		t.Fatalf("unique slug: %v", err)
	}
	if !strings.HasPrefix(slug, "hello-world-") {
		t.Fatalf("expected suffixed slug, got %q", slug)
	}
	if len(slug) == len("hello-world") {
		t.Fatalf("expected collision suffix, got %q", slug)
	}
}

func TestUniqueIgnoresExcludedRow(t *testing.T) {
	gdb, cleanup := setupSlugTestDB(t)
	defer cleanup()

	if err := gdb.Create(&slugRow{ID: "a", Slug: "hello-world"}).Error; err != nil {
		t.Fatalf("failed to seed slug: %v", err)
	}

	slug, err := Unique(gdb, "stories", "Hello, World!", "a")
	if err != nil {
		t.Fatalf("unique slug: %v", err)
	}
	if slug != "hello-world" {
		t.Fatalf("expected rename to keep hello-world, got %q", slug)
	}
}

func TestUniqueFallsBackToRandomToken(t *testing.T) {
	gdb, cleanup := setupSlugTestDB(t)
	defer cleanup()

	slug, err := Unique(gdb, "stories", "!!!", "")
	if err != nil {
		t.Fatalf("unique slug: %v", err)
	}
	if slug == "" {
		t.Fatal("expected random fallback slug, got empty string")
	}
}
