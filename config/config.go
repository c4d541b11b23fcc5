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
	API      APIConfig
	State    StateConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	CORS     CORSConfig
	Catalog  CatalogConfig
	S3       S3Config
	Log      LogConfig
}

// APIConfig points at the remote storefront API.
type APIConfig struct {
	BaseURL    string
	CSRFURL    string
	StorageURL string // prefix for relative image paths
	Timeout    time.Duration
}

// StateConfig selects where tokens and guest cart ids are persisted.
type StateConfig struct {
	Driver     string // sqlite, postgres, redis
	SQLitePath string
	Secret     string // seals the auth token at rest when set
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string

	// visitors idle for longer are dropped from memory; their state stays stored
	VisitorIdleTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CatalogConfig struct {
	RefreshSpec string // cron spec, empty disables the scheduler
	PageSize    int
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // custom endpoint for S3 compatible stores
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		API: APIConfig{
			BaseURL:    strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000/api"), "/"),
			CSRFURL:    getEnv("API_CSRF_URL", "http://localhost:8000/sanctum/csrf-cookie"),
			StorageURL: strings.TrimRight(getEnv("API_STORAGE_URL", "http://localhost:8000/storage"), "/"),
			Timeout:    parseDuration(getEnv("API_TIMEOUT", "30s"), 30*time.Second),
		},
		State: StateConfig{
			Driver:     getEnv("STATE_DRIVER", "sqlite"),
			SQLitePath: getEnv("STATE_SQLITE_PATH", "storefront.db"),
			Secret:     getEnv("STATE_SECRET", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "gamexpress"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Server: ServerConfig{
			Port:               getEnv("SERVER_PORT", "3000"),
			GinMode:            getEnv("GIN_MODE", "debug"),
			Environment:        getEnv("ENVIRONMENT", "development"),
			VisitorIdleTimeout: parseDuration(getEnv("VISITOR_IDLE_TIMEOUT", "30m"), 30*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Catalog: CatalogConfig{
			RefreshSpec: getEnv("CATALOG_REFRESH_SPEC", "@every 5m"),
			PageSize:    parseInt(getEnv("CATALOG_PAGE_SIZE", "12"), 12),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "eu-west-3"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
		if config.Server.Environment == "development" {
			config.Log.Level = "debug"
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	switch c.State.Driver {
	case "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unsupported STATE_DRIVER %q", c.State.Driver)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Catalog.PageSize < 1 {
		return fmt.Errorf("CATALOG_PAGE_SIZE must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
