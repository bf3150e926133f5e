package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultDSN = "file:pharmacy.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Config holds application configuration values.
type Config struct {
	Secret      string
	TokenTTL    time.Duration
	DatabaseDSN string
	HTTPPort    string
	AppEnv      string
	Timezone    string
	CORSOrigins []string

	Log   LogConfig
	Admin AdminConfig
	Jobs  JobsConfig

	SeedCatalog         string
	ReorderLeadDays     int
	ReorderCoverageDays int
}

type LogConfig struct {
	Level      string
	Encoding   string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AdminConfig is the account created when the users table is empty.
type AdminConfig struct {
	Username string
	Password string
}

type JobsConfig struct {
	Enabled         bool
	ExpirySweepSpec string
	LowStockSpec    string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	port := getEnv("HTTP_PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	secret := getEnv("SECRET", "")
	if secret == "" {
		secret = "dev_secret"
	}

	dsn := getEnv("DATABASE_DSN", "")
	if dsn == "" {
		dsn = defaultDSN
	}

	ttl := getEnvInt("TOKEN_TTL_HOURS", 24)
	if ttl <= 0 {
		ttl = 24
	}

	return Config{
		Secret:      secret,
		TokenTTL:    time.Duration(ttl) * time.Hour,
		DatabaseDSN: dsn,
		HTTPPort:    port,
		AppEnv:      getEnv("APP_ENV", "development"),
		Timezone:    getEnv("TIMEZONE", "Local"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Encoding:   getEnv("LOG_ENCODING", "console"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Jobs: JobsConfig{
			Enabled:         getEnvBool("JOBS_ENABLED", true),
			ExpirySweepSpec: getEnv("EXPIRY_SWEEP_SPEC", "@hourly"),
			LowStockSpec:    getEnv("LOW_STOCK_SPEC", "@daily"),
		},
		SeedCatalog:         getEnv("SEED_CATALOG", ""),
		ReorderLeadDays:     getEnvInt("REORDER_LEAD_DAYS", 7),
		ReorderCoverageDays: getEnvInt("REORDER_COVERAGE_DAYS", 30),
	}
}

// Location resolves the configured timezone, falling back to local time.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("invalid TIMEZONE value %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
