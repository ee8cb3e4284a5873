package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/middleware"
	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/modules/auth"
	"github.com/storynest/core/internal/modules/content/category"
	"github.com/storynest/core/internal/modules/content/comment"
	"github.com/storynest/core/internal/modules/content/story"
	"github.com/storynest/core/internal/modules/storage/image"
	"github.com/storynest/core/internal/modules/user"
	"github.com/storynest/core/internal/pkg/mail"
	"github.com/storynest/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db, a.logger)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Rate limiting and idempotence run on every route.
	r.Use(middleware.RateLimit(a.rc.Raw()))
	r.Use(middleware.Idempotence(a.rc.Raw()))

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(db))
	api.Use(middleware.HTTPCache(a.rc.Raw(), middleware.HTTPCacheOptions{
		TTL:       15 * time.Second,
		Disable:   a.cfg.IsDev(),
		SkipPaths: httpCacheSkipPaths(apiPrefix),
	}))

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})

	// Lets admins drop cached listings after moderating content.
	api.GET("/clean_cache", authMW, middleware.Authorize(models.RoleAdmin), func(c *gin.Context) {
		deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), a.rc.Raw())
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, gin.H{"deleted": deleted})
	})

	// Shared services
	var mailer auth.Mailer
	if a.cfg.SMTP.Enabled() {
		mailer = mail.New(a.cfg.SMTP)
	}
	images := image.New(a.cfg.S3, a.logger)

	authSvc := auth.NewService(db, a.cfg, mailer, a.logger)
	storySvc := story.NewService(db, a.logger)

	// Auth & user directory
	auth.NewHandler(authSvc, images).RegisterRoutes(api, authMW)
	user.NewHandler(user.NewService(db)).RegisterRoutes(api, authMW)

	// Content
	story.NewHandler(storySvc, images).RegisterRoutes(api, authMW)
	comment.NewHandler(comment.NewService(db, storySvc)).RegisterRoutes(api, authMW)
	category.NewHandler(category.NewService(db)).RegisterRoutes(api, authMW)
}

// httpCacheSkipPaths keeps auth flows and per-user listings out of the shared
// response cache.
func httpCacheSkipPaths(prefix string) []string {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	return []string{
		p + "/ping",
		p + "/clean_cache",
		p + "/auth/*",
		p + "/stories/me",
	}
}
