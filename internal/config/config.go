package config

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

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
	NLP        NLPConfig
	Logging    LoggingConfig
	OpenAI     OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the parts below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	AutoMigrate        bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	ShutdownTimeout time.Duration
}

// SearchConfig holds listing search configuration
type SearchConfig struct {
	PageSize     int // rows fetched per query
	DisplayLimit int // cards shown per reply
	SimilarLimit int
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	Store           string // memory or redis
	TTL             time.Duration
	CleanupInterval time.Duration
	RedisURL        string
	KeyPrefix       string
	HistoryLimit    int
}

// RateLimitConfig holds per-client limits for the chat endpoint
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// NLPConfig holds vocabulary configuration
type NLPConfig struct {
	VocabularyFile string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// OpenAIConfig holds the text generation backend configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int
	Timeout         int
	Enabled         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "realtychat"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
			AutoMigrate:        getEnvAsBool("PG_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  getEnv("CORS_ALLOWED_METHODS", "GET,POST,DELETE,OPTIONS"),
			AllowedHeaders:  getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Search: SearchConfig{
			PageSize:     getEnvAsInt("SEARCH_PAGE_SIZE", 20),
			DisplayLimit: getEnvAsInt("SEARCH_DISPLAY_LIMIT", 6),
			SimilarLimit: getEnvAsInt("SEARCH_SIMILAR_LIMIT", 6),
		},
		Session: SessionConfig{
			Store:           getEnv("SESSION_STORE", "memory"),
			TTL:             getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
			RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix:       getEnv("SESSION_KEY_PREFIX", "session:"),
			HistoryLimit:    getEnvAsInt("SESSION_HISTORY_LIMIT", 12),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		NLP: NLPConfig{
			VocabularyFile: getEnv("NLP_VOCABULARY_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         strings.TrimRight(getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"), "/"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.3),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 300),
			Timeout:         getEnvAsInt("OPENAI_TIMEOUT", 15),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	switch c.Session.Store {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.Session.Store))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Search.PageSize <= 0 || c.Search.DisplayLimit <= 0 {
		errs = append(errs, errors.New("SEARCH_PAGE_SIZE and SEARCH_DISPLAY_LIMIT must be positive"))
	}
	if c.Search.DisplayLimit > c.Search.PageSize {
		errs = append(errs, fmt.Errorf("SEARCH_DISPLAY_LIMIT (%d) exceeds SEARCH_PAGE_SIZE (%d)", c.Search.DisplayLimit, c.Search.PageSize))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
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
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
