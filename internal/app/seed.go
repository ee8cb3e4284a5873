package app

import (
	"errors"

	"github.com/storynest/core/internal/config"
	"github.com/storynest/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// seedSuperAdmin promotes the account matching SUPER_ADMIN_EMAIL at startup.
// The user must have registered through the normal flow first; until then
// this logs and does nothing.
func seedSuperAdmin(db *gorm.DB, cfg *config.AppConfig, log *zap.Logger) {
	email := cfg.SuperAdminEmail
	if email == "" {
		log.Warn("SUPER_ADMIN_EMAIL is not set, skipping super admin seeding")
		return
	}

	var u models.UserModel
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Info("super admin account not registered yet", zap.String("email", email))
		} else {
			log.Error("super admin seeding failed", zap.Error(err))
		}
		return
	}

	if u.Role == models.RoleSuperAdmin {
		log.Info("super admin already seeded", zap.String("email", email))
		return
	}

	if err := db.Model(&u).Update("role", models.RoleSuperAdmin).Error; err != nil {
		log.Error("super admin promotion failed", zap.Error(err))
		return
	}
	log.Info("promoted account to super-admin", zap.String("email", email))
}
