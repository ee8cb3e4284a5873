package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/storynest/core/internal/config"
	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/modules/auth"
	"github.com/storynest/core/internal/modules/content/comment"
	"github.com/storynest/core/internal/modules/content/story"
	"github.com/storynest/core/internal/modules/user"
	jwtpkg "github.com/storynest/core/internal/pkg/jwt"
	"github.com/storynest/core/internal/pkg/mail"
	"github.com/storynest/core/internal/pkg/pagination"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memoryMailer struct{ sent []mail.Message }

func (m *memoryMailer) Send(msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memoryMailer) lastToken(t *testing.T) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatal("expected an email")
	}
	text := m.sent[len(m.sent)-1].Text
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '/' {
			rest := text[i+1:]
			for j := 0; j < len(rest); j++ {
				if rest[j] == '\n' {
					return rest[:j]
				}
			}
			return rest
		}
	}
	t.Fatal("no token URL in email")
	return ""
}

func setupFlowDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:flow-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = gdb.AutoMigrate(
		&models.UserModel{},
		&models.RefreshSession{},
		&models.CategoryModel{},
		&models.StoryModel{},
		&models.CommentModel{},
	)
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

// The full publishing round trip: register, verify, login, author a story,
// admin approval, public listing, then a rated comment moving the average.
func TestPublishingFlow(t *testing.T) {
	gdb, cleanup := setupFlowDB(t)
	defer cleanup()

	cfg := &config.AppConfig{
		Env:           "development",
		FrontendURL:   "http://localhost:3000",
		JWTSecret:     "flow-secret",
		JWTExpire:     15 * time.Minute,
		RefreshExpire: 7 * 24 * time.Hour,
		VerifyExpire:  24 * time.Hour,
		ResetExpire:   10 * time.Minute,
	}
	jwtpkg.SetSecret(cfg.JWTSecret)

	mailer := &memoryMailer{}
	log := zap.NewNop()
	authSvc := auth.NewService(gdb, cfg, mailer, log)
	storySvc := story.NewService(gdb, log)
	commentSvc := comment.NewService(gdb, storySvc)
	userSvc := user.NewService(gdb)

	// Register and verify.
	registered, err := authSvc.Register(&auth.RegisterDTO{Username: "writer", Email: "writer@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.IsVerified {
		t.Fatal("account must start unverified")
	}
	if _, _, err := authSvc.VerifyEmail(mailer.lastToken(t)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Login issues a parsable access token.
	accessToken, _, err := authSvc.Login(&auth.LoginDTO{Email: "writer@example.com", Password: "password1"}, "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := jwtpkg.Parse(accessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	authorID := claims.UserID

	// Author a story; it starts pending and off the public listing.
	cat := models.CategoryModel{Name: "Fiction", Slug: "fiction"}
	if err := gdb.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	st, err := storySvc.Create(authorID, &story.CreateStoryDTO{Title: "My First Story", Content: "once upon a time", Category: cat.ID}, "", "")
	if err != nil {
		t.Fatalf("create story: %v", err)
	}
	listed, _, err := storySvc.List(story.ListOptions{}, false, pagination.Query{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatal("pending story must not be listed publicly")
	}

	// A promoted admin approves it.
	adminRow := models.UserModel{Username: "mod", Email: "mod@example.com", IsVerified: true, Role: models.RoleUser}
	if err := gdb.Create(&adminRow).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := userSvc.Promote(adminRow.ID); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := storySvc.UpdateStatus(st.ID, models.StoryApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	listed, _, err = storySvc.List(story.ListOptions{}, false, pagination.Query{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list after approval: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != st.ID {
		t.Fatal("approved story must appear in the public listing")
	}

	// A rated comment drives the average.
	if _, err := commentSvc.Add(st.ID, adminRow.ID, &comment.CreateCommentDTO{Text: "solid debut", Rating: 4}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := storySvc.RecalculateAvgRating(st.ID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	final, err := storySvc.Get(st.ID)
	if err != nil {
		t.Fatalf("get story: %v", err)
	}
	if final.AvgRating != 4.0 {
		t.Fatalf("expected avgRating 4.0, got %v", final.AvgRating)
	}
	if final.CommentCount != 1 {
		t.Fatalf("expected commentCount 1, got %d", final.CommentCount)
	}
}
