package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storynest/core/internal/models"
	jwtpkg "github.com/storynest/core/internal/pkg/jwt"
	"github.com/storynest/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "user_role"

	// TokenCookie is the legacy httpOnly cookie carrying an access token.
	TokenCookie = "token"
)

// Auth returns a middleware that enforces access-token authentication and
// verifies the account still exists.
func Auth(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			response.Unauthorized(c, "Not authorized, no token provided.")
			return
		}

		claims, err := jwtpkg.Parse(raw)
		if err != nil {
			if errors.Is(err, jwtpkg.ErrTokenExpired) {
				// Expected event; the client should call /auth/refresh.
				log.Info("access token expired")
				response.Unauthorized(c, "Token expired.")
				return
			}
			log.Warn("invalid access token received", zap.Error(err))
			response.Unauthorized(c, "Invalid token.")
			return
		}

		var count int64
		if err := db.Model(&models.UserModel{}).Where("id = ?", claims.UserID).Count(&count).Error; err != nil {
			response.InternalError(c, err)
			return
		}
		if count == 0 {
			response.Unauthorized(c, "User not found.")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth sets the user identity if a valid token is present, but does
// not block the request.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := extractToken(c); raw != "" {
			if claims, err := jwtpkg.Parse(raw); err == nil && claims.UserID != "" {
				c.Set(ContextKeyUserID, claims.UserID)
				c.Set(ContextKeyRole, claims.Role)
			}
		}
		c.Next()
	}
}

// Authorize returns a middleware granting access when the caller's role is in
// the allow-list. A super-admin bypasses every check.
func Authorize(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == models.RoleSuperAdmin {
			c.Next()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Forbidden(c, fmt.Sprintf("User role '%s' is not authorized to access this route", role))
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentRole extracts the authenticated user's role from context.
func CurrentRole(c *gin.Context) models.Role {
	v, _ := c.Get(ContextKeyRole)
	role, _ := v.(string)
	return models.Role(role)
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// IsAdmin returns true for admin and super-admin callers.
func IsAdmin(c *gin.Context) bool {
	return CurrentRole(c).AtLeastAdmin()
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return NormalizeToken(cookie)
	}
	return ""
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	tok := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(tok), "bearer ") {
		return strings.TrimSpace(tok[7:])
	}
	return tok
}
