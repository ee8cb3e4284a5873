package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = 5000
	defaultEnv           = "development"
	defaultRedisURL      = "redis://localhost:6379/0"
	defaultFrontendURL   = "http://localhost:3000"
	defaultJWTExpire     = 15 * time.Minute
	defaultRefreshExpire = 7 * 24 * time.Hour
	defaultVerifyExpire  = 24 * time.Hour
	defaultResetExpire   = 10 * time.Minute
	defaultSMTPPort      = 587
)

// AppConfig holds runtime startup configuration loaded from environment
// variables. Secrets are validated once at startup; the process refuses to
// start without them rather than failing on the first request.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production"
	DSN            string // MySQL DSN
	RedisURL       string
	FrontendURL    string
	AllowedOrigins []string

	JWTSecret     string
	JWTExpire     time.Duration
	RefreshExpire time.Duration
	VerifyExpire  time.Duration
	ResetExpire   time.Duration

	SMTP SMTPConfig
	S3   S3Config

	GoogleClientID  string
	SuperAdminEmail string
}

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether outbound mail is configured.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// S3Config holds object-storage settings for cover images and avatars.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	CustomDomain    string
}

// Enabled reports whether object storage is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" && c.AccessKeyID != "" }

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:           envInt("PORT", defaultPort),
		Env:            envOr("ENV", envOr("NODE_ENV", defaultEnv)),
		DSN:            os.Getenv("DB_DSN"),
		RedisURL:       envOr("REDIS_URL", defaultRedisURL),
		FrontendURL:    envOr("FRONTEND_URL", defaultFrontendURL),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTExpire:     envDuration("JWT_EXPIRE", defaultJWTExpire),
		RefreshExpire: envDuration("REFRESH_EXPIRE", defaultRefreshExpire),
		VerifyExpire:  defaultVerifyExpire,
		ResetExpire:   defaultResetExpire,

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", defaultSMTPPort),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		S3: S3Config{
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			Region:          envOr("S3_REGION", "us-east-1"),
			Bucket:          os.Getenv("S3_BUCKET"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			CustomDomain:    os.Getenv("S3_CUSTOM_DOMAIN"),
		},

		GoogleClientID:  os.Getenv("GOOGLE_CLIENT_ID"),
		SuperAdminEmail: os.Getenv("SUPER_ADMIN_EMAIL"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be defined in environment variables")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DB_DSN must be defined in environment variables")
	}
	return cfg, nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
