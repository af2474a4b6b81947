package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost    string
	DBUser    string
	DBPass    string
	DBName    string
	DBPort    string
	DBSSLMode string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	JWTSecret string
	JWTTTL    time.Duration

	InstitutionEmailDomain string
	SiteURL                string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	NotifyQueueSize     int
	NotifyRatePerSecond float64

	MessageRefreshInterval time.Duration
	TeamReindexSchedule    string
	TeamSeedFile           string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost:    getEnv("DB_HOST", "localhost"),
		DBUser:    getEnv("DB_USER", "postgres"),
		DBPass:    os.Getenv("DB_PASS"),
		DBName:    getEnv("DB_NAME", "teamcommonapp"),
		DBPort:    getEnv("DB_PORT", "5432"),
		DBSSLMode: getEnv("DB_SSLMODE", "disable"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "teamcommonapp"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		InstitutionEmailDomain: getEnv("INSTITUTION_EMAIL_DOMAIN", "cornell.edu"),
		SiteURL:                strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@localhost"),

		TeamReindexSchedule: getEnv("TEAM_REINDEX_SCHEDULE", "@every 30m"),
		TeamSeedFile:        os.Getenv("TEAM_SEED_FILE"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret"
	}

	var err error
	cfg.JWTTTL, err = parseMinutes(getEnv("JWT_TTL_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %w", err)
	}
	cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.NotifyQueueSize, err = strconv.Atoi(getEnv("NOTIFY_QUEUE_SIZE", "256"))
	if err != nil || cfg.NotifyQueueSize <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_QUEUE_SIZE: %q", getEnv("NOTIFY_QUEUE_SIZE", ""))
	}
	cfg.NotifyRatePerSecond, err = strconv.ParseFloat(getEnv("NOTIFY_RATE_PER_SECOND", "5"), 64)
	if err != nil || cfg.NotifyRatePerSecond <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_RATE_PER_SECOND: %q", getEnv("NOTIFY_RATE_PER_SECOND", ""))
	}
	cfg.MessageRefreshInterval, err = parseDuration(getEnv("MESSAGE_REFRESH_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_REFRESH_INTERVAL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

func parseMinutes(s string) (time.Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return time.Duration(n) * time.Minute, nil
}
