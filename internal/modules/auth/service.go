package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/storynest/core/internal/config"
	"github.com/storynest/core/internal/models"
	jwtpkg "github.com/storynest/core/internal/pkg/jwt"
	"github.com/storynest/core/internal/pkg/mail"
	"github.com/storynest/core/internal/pkg/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrEmailNotVerified   = errors.New("Please verify your email address before logging in.")
	ErrEmailSend          = errors.New("Email could not be sent")
	ErrUserNotFound       = errors.New("No user with that email")
	ErrInvalidVerifyToken = errors.New("Invalid or expired verification token.")
	ErrInvalidResetToken  = errors.New("Invalid token")
	ErrInvalidRefresh     = errors.New("Forbidden, invalid refresh token")
	ErrInvalidGoogleToken = errors.New("Invalid Google token")
)

// Mailer sends a single message. Satisfied by *mail.Sender.
type Mailer interface {
	Send(msg mail.Message) error
}

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

type Service struct {
	db     *gorm.DB
	cfg    *config.AppConfig
	mailer Mailer
	log    *zap.Logger

	// httpClient performs Google token verification calls.
	httpClient *http.Client
}

func NewService(db *gorm.DB, cfg *config.AppConfig, mailer Mailer, log *zap.Logger) *Service {
	return &Service{
		db:         db,
		cfg:        cfg,
		mailer:     mailer,
		log:        log,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// DB exposes the underlying handle for middleware wiring.
func (s *Service) DB() *gorm.DB { return s.db }

// Register creates an unverified account and emails a verification link. When
// the email cannot be sent the account is removed again so the address stays
// free for a retry.
func (s *Service) Register(dto *RegisterDTO) (*models.UserModel, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	plain, err := token.Generate(20)
	if err != nil {
		return nil, err
	}
	expire := time.Now().Add(s.cfg.VerifyExpire)

	u := models.UserModel{
		Username:                dto.Username,
		Email:                   dto.Email,
		Password:                string(hash),
		Role:                    models.RoleUser,
		VerificationToken:       token.Hash(plain),
		VerificationTokenExpire: &expire,
	}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}

	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.cfg.FrontendURL, plain)
	if err := s.sendMail(mail.VerificationMessage(u.Email, verifyURL)); err != nil {
		s.log.Error("email could not be sent during registration", zap.Error(err))
		s.db.Unscoped().Delete(&u)
		return nil, ErrEmailSend
	}
	return &u, nil
}

// Login checks credentials on a verified account, then returns a signed access
// token plus a fresh refresh token (plaintext; only its hash is persisted).
func (s *Service) Login(dto *LoginDTO, ip, agent string) (accessToken, refreshToken string, err error) {
	var u models.UserModel
	if err := s.db.Where("email = ?", dto.Email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if !u.IsVerified {
		return "", "", ErrEmailNotVerified
	}
	if u.Password == "" {
		return "", "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	accessToken, err = jwtpkg.Sign(u.ID, string(u.Role), s.cfg.JWTExpire)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = s.issueRefreshSession(u.ID, ip, agent)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (s *Service) issueRefreshSession(userID, ip, agent string) (string, error) {
	plain, err := token.Generate(32)
	if err != nil {
		return "", err
	}
	session := models.RefreshSession{
		UserID:    userID,
		TokenHash: token.Hash(plain),
		ExpiresAt: time.Now().Add(s.cfg.RefreshExpire),
		IP:        ip,
		UA:        agent,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return "", err
	}
	return plain, nil
}

// Refresh exchanges a valid refresh token for a new access token. The lookup
// is an indexed equality on the token hash.
func (s *Service) Refresh(refreshToken string) (string, error) {
	var session models.RefreshSession
	err := s.db.Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?",
		token.Hash(refreshToken), time.Now()).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidRefresh
		}
		return "", err
	}

	var u models.UserModel
	if err := s.db.First(&u, "id = ?", session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidRefresh
		}
		return "", err
	}
	return jwtpkg.Sign(u.ID, string(u.Role), s.cfg.JWTExpire)
}

// Logout revokes the presented refresh session. Best effort: an unknown or
// already-revoked token is not an error.
func (s *Service) Logout(refreshToken string) {
	if refreshToken == "" {
		return
	}
	now := time.Now()
	s.db.Model(&models.RefreshSession{}).
		Where("token_hash = ? AND revoked_at IS NULL", token.Hash(refreshToken)).
		Update("revoked_at", &now)
}

// VerifyEmail marks the account matching an unexpired verification token as
// verified and logs the user in.
func (s *Service) VerifyEmail(plainToken string) (string, *models.UserModel, error) {
	var u models.UserModel
	err := s.db.Where("verification_token = ? AND verification_token_expire > ?",
		token.Hash(plainToken), time.Now()).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidVerifyToken
		}
		return "", nil, err
	}

	updates := map[string]interface{}{
		"is_verified":               true,
		"verification_token":        "",
		"verification_token_expire": nil,
	}
	if err := s.db.Model(&u).Updates(updates).Error; err != nil {
		return "", nil, err
	}

	accessToken, err := jwtpkg.Sign(u.ID, string(u.Role), s.cfg.JWTExpire)
	if err != nil {
		return "", nil, err
	}
	return accessToken, &u, nil
}

// ForgotPassword issues a reset token and emails the reset URL. On a send
// failure the token fields are cleared again so the account is not locked to
// a token the user never received.
func (s *Service) ForgotPassword(email, baseURL string) error {
	var u models.UserModel
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	plain, err := token.Generate(20)
	if err != nil {
		return err
	}
	expire := time.Now().Add(s.cfg.ResetExpire)
	err = s.db.Model(&u).Updates(map[string]interface{}{
		"reset_password_token":  token.Hash(plain),
		"reset_password_expire": &expire,
	}).Error
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/v1/auth/resetpassword/%s", baseURL, plain)
	if err := s.sendMail(mail.ResetPasswordMessage(u.Email, resetURL)); err != nil {
		s.log.Error("password reset email failed", zap.String("email", u.Email), zap.Error(err))
		s.db.Model(&u).Updates(map[string]interface{}{
			"reset_password_token":  "",
			"reset_password_expire": nil,
		})
		return ErrEmailSend
	}
	return nil
}

// ResetPassword sets a new password for the account matching an unexpired
// reset token and logs the user in.
func (s *Service) ResetPassword(plainToken, newPassword string) (string, error) {
	var u models.UserModel
	err := s.db.Where("reset_password_token = ? AND reset_password_expire > ?",
		token.Hash(plainToken), time.Now()).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidResetToken
		}
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	err = s.db.Model(&u).Updates(map[string]interface{}{
		"password":              string(hash),
		"reset_password_token":  "",
		"reset_password_expire": nil,
	}).Error
	if err != nil {
		return "", err
	}
	return jwtpkg.Sign(u.ID, string(u.Role), s.cfg.JWTExpire)
}

// Me loads the current user document.
func (s *Service) Me(userID string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// googleTokenInfo is the subset of Google's tokeninfo response we need.
type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleLogin verifies a Google ID token, then finds the linked account,
// links by email, or creates a new verified account without a password.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (string, *models.UserModel, error) {
	info, err := s.verifyGoogleToken(ctx, idToken)
	if err != nil {
		return "", nil, err
	}

	u, err := s.findOrCreateGoogleUser(info)
	if err != nil {
		return "", nil, err
	}

	accessToken, err := jwtpkg.Sign(u.ID, string(u.Role), s.cfg.JWTExpire)
	if err != nil {
		return "", nil, err
	}
	return accessToken, u, nil
}

func (s *Service) verifyGoogleToken(ctx context.Context, idToken string) (*googleTokenInfo, error) {
	endpoint := googleTokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidGoogleToken
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, ErrInvalidGoogleToken
	}
	if info.Sub == "" || info.Email == "" {
		return nil, ErrInvalidGoogleToken
	}
	if s.cfg.GoogleClientID != "" && info.Aud != s.cfg.GoogleClientID {
		return nil, ErrInvalidGoogleToken
	}
	return &info, nil
}

func (s *Service) findOrCreateGoogleUser(info *googleTokenInfo) (*models.UserModel, error) {
	var u models.UserModel
	err := s.db.Where("google_id = ?", info.Sub).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Link the Google identity to an existing email account.
	err = s.db.Where("email = ?", info.Email).First(&u).Error
	if err == nil {
		if err := s.db.Model(&u).Update("google_id", info.Sub).Error; err != nil {
			return nil, err
		}
		googleID := info.Sub
		u.GoogleID = &googleID
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	username := info.Name
	if username == "" {
		username = info.Email
	}
	googleID := info.Sub
	u = models.UserModel{
		Username:   username,
		Email:      info.Email,
		Role:       models.RoleUser,
		IsVerified: true, // Google addresses arrive verified
		GoogleID:   &googleID,
	}
	return &u, s.db.Create(&u).Error
}

// UpdateAvatarFields persists a newly uploaded avatar and returns the key of
// the previous object so the caller can release it.
func (s *Service) UpdateAvatarFields(userID, avatarURL, avatarKey string) (oldKey string, err error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		return "", err
	}
	oldKey = u.AvatarKey
	err = s.db.Model(&u).Updates(map[string]interface{}{
		"avatar":     avatarURL,
		"avatar_key": avatarKey,
	}).Error
	return oldKey, err
}

func (s *Service) sendMail(msg mail.Message) error {
	if s.mailer == nil {
		return fmt.Errorf("mail is not configured")
	}
	return s.mailer.Send(msg)
}
