// config.go reads runtime settings from the environment
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	FrontendURLs []string
	OwnerUserID  uint

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	MailRelayURL  string
	NotifyEmail   string
	NotifyTimeout time.Duration

	RevalidationURL    string
	RevalidationSecret string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	RedisURL string
	CacheTTL time.Duration

	ContactRateLimit int
	LoginRateLimit   int
}

func loadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := Config{
		Port:               envOr("PORT", "8081"),
		DBDriver:           strings.ToLower(envOr("DB_DRIVER", "sqlite")),
		DBPath:             envOr("DB_PATH", "../database/portfolio.db"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminUsername:      envOr("ADMIN_USERNAME", "admin"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		MailRelayURL:       os.Getenv("MAIL_RELAY_URL"),
		NotifyEmail:        os.Getenv("NOTIFY_EMAIL"),
		RevalidationURL:    os.Getenv("NEXT_REVALIDATION_URL"),
		RevalidationSecret: os.Getenv("REVALIDATION_SECRET"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           envOr("S3_REGION", "auto"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		S3PublicURL:        os.Getenv("S3_PUBLIC_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
	}

	for _, origin := range []string{os.Getenv("FRONTEND_URL"), os.Getenv("FRONTEND_URL2")} {
		if origin != "" {
			cfg.FrontendURLs = append(cfg.FrontendURLs, origin)
		}
	}

	var err error
	if cfg.AccessTTL, err = envDuration("ACCESS_TOKEN_TTL", time.Hour); err != nil {
		return cfg, err
	}
	if cfg.RefreshTTL, err = envDuration("REFRESH_TOKEN_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.NotifyTimeout, err = envDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = envDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.ContactRateLimit, err = envInt("CONTACT_RATE_LIMIT", 5); err != nil {
		return cfg, err
	}
	if cfg.LoginRateLimit, err = envInt("LOGIN_RATE_LIMIT", 10); err != nil {
		return cfg, err
	}
	owner, err := envInt("OWNER_USER_ID", 1)
	if err != nil {
		return cfg, err
	}
	if owner < 1 {
		return cfg, errors.New("OWNER_USER_ID must be positive")
	}
	cfg.OwnerUserID = uint(owner)

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return cfg, errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
