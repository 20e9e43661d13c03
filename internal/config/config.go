package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingDB      = errors.New("DATABASE_URL is required for the postgres and sqlite drivers")
	ErrInvalidDriver  = errors.New("DATABASE_DRIVER must be postgres, sqlite or memory")
	ErrMissingLLMKey  = errors.New("LLM_API_KEY is required unless LLM_PROVIDER=mock")
	ErrInvalidTimeout = errors.New("timeouts must be positive")
	ErrInvalidQuota   = errors.New("SERANKING_RPS must be positive")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	HTTP       HTTPConfig
	Telegram   TelegramConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	LLM        LLMConfig
	Perplexity PerplexityConfig
	SERanking  SERankingConfig
	Timeouts   TimeoutConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	Intent     IntentConfig
}

type HTTPConfig struct {
	Addr string
}

// TelegramConfig - бот включается только если задан токен
type TelegramConfig struct {
	Token string
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

// RedisConfig - пустой Addr означает кеш в памяти процесса
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

type PerplexityConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type SERankingConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond int
}

type TimeoutConfig struct {
	Specialist time.Duration
	Total      time.Duration
}

type CacheConfig struct {
	ProfileTTL time.Duration
	PayloadTTL time.Duration
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LogConfig struct {
	Level string
}

// IntentConfig - путь к YAML с группами ключевых слов, пусто = встроенные
type IntentConfig struct {
	KeywordsPath string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Addr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		},
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverPostgres)),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", "mock"),
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:  getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			Timeout:  time.Duration(getEnvIntOrDefault("LLM_TIMEOUT_SEC", 60)) * time.Second,
		},
		Perplexity: PerplexityConfig{
			APIKey:  os.Getenv("PERPLEXITY_API_KEY"),
			Model:   getEnvOrDefault("PERPLEXITY_MODEL", "llama-3.1-sonar-large-128k-online"),
			BaseURL: getEnvOrDefault("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
			Timeout: time.Duration(getEnvIntOrDefault("PERPLEXITY_TIMEOUT_SEC", 30)) * time.Second,
		},
		SERanking: SERankingConfig{
			APIKey:            os.Getenv("SERANKING_API_KEY"),
			BaseURL:           getEnvOrDefault("SERANKING_BASE_URL", "https://api.seranking.com/v1"),
			Timeout:           time.Duration(getEnvIntOrDefault("SERANKING_TIMEOUT_SEC", 30)) * time.Second,
			RequestsPerSecond: getEnvIntOrDefault("SERANKING_RPS", 5),
		},
		Timeouts: TimeoutConfig{
			Specialist: time.Duration(getEnvIntOrDefault("SPECIALIST_TIMEOUT_SEC", 25)) * time.Second,
			Total:      time.Duration(getEnvIntOrDefault("TOTAL_TIMEOUT_SEC", 60)) * time.Second,
		},
		Cache: CacheConfig{
			ProfileTTL: time.Duration(getEnvIntOrDefault("PROFILE_CACHE_TTL_SEC", 900)) * time.Second,
			PayloadTTL: time.Duration(getEnvIntOrDefault("PAYLOAD_CACHE_TTL_SEC", 3600)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 20),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Intent: IntentConfig{
			KeywordsPath: os.Getenv("INTENT_KEYWORDS_PATH"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.URL == "" {
			return ErrMissingDB
		}
	case DriverMemory:
	default:
		return ErrInvalidDriver
	}
	if c.LLM.Provider != "mock" && c.LLM.APIKey == "" {
		return ErrMissingLLMKey
	}
	if c.Timeouts.Specialist <= 0 || c.Timeouts.Total <= 0 {
		return ErrInvalidTimeout
	}
	if c.SERanking.RequestsPerSecond <= 0 {
		return ErrInvalidQuota
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
