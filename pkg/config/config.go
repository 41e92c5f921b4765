package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	TeamleaderClientID     string
	TeamleaderClientSecret string
	TeamleaderRedirectURI  string
	TeamleaderBaseURL      string
	TeamleaderAuthURL      string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	SyncInterval   time.Duration
	SyncPageSize   int
	SyncMaxBatches int
	SyncErrorLimit int
	QuotaLimit     int
	RatePerSecond  float64
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=bct_crm port=5432 sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/connections/gmail/callback"),

		TeamleaderClientID:     getEnv("TEAMLEADER_CLIENT_ID", ""),
		TeamleaderClientSecret: getEnv("TEAMLEADER_CLIENT_SECRET", ""),
		TeamleaderRedirectURI:  getEnv("TEAMLEADER_REDIRECT_URI", "http://localhost:8080/api/connections/teamleader/callback"),
		TeamleaderBaseURL:      getEnv("TEAMLEADER_BASE_URL", "https://api.focus.teamleader.eu"),
		TeamleaderAuthURL:      getEnv("TEAMLEADER_AUTH_URL", "https://focus.teamleader.eu/oauth2/access_token"),

		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.anthropic.com"),
		LLMModel:   getEnv("LLM_MODEL", "claude-3-5-sonnet-20241022"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@containersuper.com"),

		SyncInterval:   getDuration("SYNC_INTERVAL", 15*time.Minute),
		SyncPageSize:   getInt("SYNC_PAGE_SIZE", 50),
		SyncMaxBatches: getInt("SYNC_MAX_BATCHES", 20),
		SyncErrorLimit: getInt("SYNC_ERROR_LIMIT", 5),
		QuotaLimit:     getInt("QUOTA_LIMIT", 10000),
		RatePerSecond:  getFloat("RATE_PER_SECOND", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
