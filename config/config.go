package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Records RecordsConfig
	Assets  AssetsConfig
	Redis   RedisConfig
	App     AppConfig
}

type ServerConfig struct {
	Port string
}

// RecordsConfig points at the remote tabular record store holding all
// project and contact state.
type RecordsConfig struct {
	BaseURL       string
	APIKey        string
	BaseID        string
	ProjectsTable string
	ContactsTable string
	RatePerSec    float64
}

// AssetsConfig points at the third-party asset host design files upload to.
type AssetsConfig struct {
	BaseURL        string
	APIKey         string
	MaxUploadBytes int64
}

// RedisConfig configures the read-through record cache. An empty Addr
// disables caching and every read goes straight to the record store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	APIKey      string
	CORSOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Records: RecordsConfig{
			BaseURL:       getEnv("RECORDS_BASE_URL", "https://api.airtable.com"),
			APIKey:        getEnv("RECORDS_API_KEY", ""),
			BaseID:        getEnv("RECORDS_BASE_ID", ""),
			ProjectsTable: getEnv("RECORDS_PROJECTS_TABLE", "Projects"),
			ContactsTable: getEnv("RECORDS_CONTACTS_TABLE", "Contacts"),
			RatePerSec:    float64(getEnvAsInt("RECORDS_RATE_PER_SEC", 5)),
		},
		Assets: AssetsConfig{
			BaseURL:        getEnv("ASSETS_BASE_URL", ""),
			APIKey:         getEnv("ASSETS_API_KEY", ""),
			MaxUploadBytes: int64(getEnvAsInt("ASSETS_MAX_UPLOAD_MB", 25)) << 20,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			APIKey:      getEnv("API_KEY", ""),
			CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Records.APIKey == "" {
		return fmt.Errorf("RECORDS_API_KEY is required")
	}

	if c.Records.BaseID == "" {
		return fmt.Errorf("RECORDS_BASE_ID is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
