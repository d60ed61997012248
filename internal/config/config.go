package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort string

	// Race engine
	TierDelay          time.Duration // head start granted to verified partners
	PriorityHold       time.Duration // how long a custom-RFQ priority hold lasts
	UrgentRaceDelay    time.Duration // minimum delay before an urgent race opens
	BroadcastHour      int           // local hour standard broadcasts target
	BusinessHoursStart int
	BusinessHoursEnd   int
	RaceStatusCacheTTL time.Duration

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "foundrybay")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@foundrybay.example.com")
	cfg.AppName = getEnv("APP_NAME", "FoundryBay")

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	tierDelaySeconds, err := strconv.ParseInt(getEnv("TIER_DELAY_SECONDS", "300"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TIER_DELAY_SECONDS: %w", err)
	}
	cfg.TierDelay = time.Duration(tierDelaySeconds) * time.Second

	holdSeconds, err := strconv.ParseInt(getEnv("PRIORITY_HOLD_SECONDS", "7200"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PRIORITY_HOLD_SECONDS: %w", err)
	}
	cfg.PriorityHold = time.Duration(holdSeconds) * time.Second

	urgentDelaySeconds, err := strconv.ParseInt(getEnv("URGENT_RACE_DELAY_SECONDS", "300"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid URGENT_RACE_DELAY_SECONDS: %w", err)
	}
	cfg.UrgentRaceDelay = time.Duration(urgentDelaySeconds) * time.Second

	cfg.BroadcastHour, err = strconv.Atoi(getEnv("BROADCAST_HOUR", "9"))
	if err != nil {
		return nil, fmt.Errorf("invalid BROADCAST_HOUR: %w", err)
	}
	if cfg.BroadcastHour < 0 || cfg.BroadcastHour > 23 {
		return nil, fmt.Errorf("BROADCAST_HOUR out of range: %d", cfg.BroadcastHour)
	}

	cfg.BusinessHoursStart, err = strconv.Atoi(getEnv("BUSINESS_HOURS_START", "9"))
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOURS_START: %w", err)
	}
	cfg.BusinessHoursEnd, err = strconv.Atoi(getEnv("BUSINESS_HOURS_END", "17"))
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOURS_END: %w", err)
	}
	if cfg.BusinessHoursStart < 0 || cfg.BusinessHoursEnd > 24 || cfg.BusinessHoursStart >= cfg.BusinessHoursEnd {
		return nil, fmt.Errorf("invalid business hours window: %d..%d", cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	}

	cacheTTLSeconds, err := strconv.ParseInt(getEnv("RACE_STATUS_CACHE_TTL_SECONDS", "5"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RACE_STATUS_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.RaceStatusCacheTTL = time.Duration(cacheTTLSeconds) * time.Second

	// Rate Limiting
	cfg.RateLimitSoftBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_BUCKET_SIZE", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitSoftRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_REFILL_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_REFILL_RATE: %w", err)
	}
	cfg.RateLimitHardBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_BUCKET_SIZE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitHardRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_REFILL_RATE", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
