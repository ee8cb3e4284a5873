package models

import "time"

// Role is the user capability level.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// AtLeastAdmin reports whether the role carries admin capabilities.
func (r Role) AtLeastAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UserModel represents a registered account.
// Password is empty for OAuth-only accounts. Verification and reset tokens are
// stored as SHA-256 hex digests, never as the plaintext sent to the user.
type UserModel struct {
	Base
	Username                string     `json:"username"   gorm:"uniqueIndex;size:30;not null"`
	Email                   string     `json:"email"      gorm:"uniqueIndex;not null"`
	Password                string     `json:"-"`
	Role                    Role       `json:"role"       gorm:"default:user;index"`
	IsVerified              bool       `json:"isVerified" gorm:"default:false"`
	VerificationToken       string     `json:"-"          gorm:"index"`
	VerificationTokenExpire *time.Time `json:"-"`
	ResetPasswordToken      string     `json:"-"          gorm:"index"`
	ResetPasswordExpire     *time.Time `json:"-"`
	GoogleID                *string    `json:"-"          gorm:"uniqueIndex"`
	Avatar                  string     `json:"avatar"`
	AvatarKey               string     `json:"-"`
}

func (UserModel) TableName() string { return "users" }

// RefreshSession is one issued refresh token. Only the SHA-256 digest of the
// token is persisted; lookup is an indexed equality on TokenHash rather than a
// scan over every active session.
type RefreshSession struct {
	Base
	UserID    string     `json:"user_id"    gorm:"index;not null"`
	TokenHash string     `json:"-"          gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at" gorm:"index"`
	IP        string     `json:"ip"`
	UA        string     `json:"ua"         gorm:"type:text"`
}

func (RefreshSession) TableName() string { return "refresh_sessions" }
