package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/wykra-go/internal/constants"
	"github.com/kapu/wykra-go/internal/domain"
)

type Config struct {
	App        AppConfig
	BrightData BrightDataConfig
	OpenRouter OpenRouterConfig
	Gemini     GeminiConfig
	Redis      RedisConfig
	Server     ServerConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

type AppConfig struct {
	Name        string
	Environment string
}

type BrightDataConfig struct {
	APIToken       string
	DatasetID      string
	BaseURL        string
	PollInterval   time.Duration
	MaxWait        time.Duration
	FetchAttempts  int
	RequestTimeout time.Duration
	SnapshotFormat domain.SnapshotFormat
}

// Missing lists the credential settings that are empty.
func (c BrightDataConfig) Missing() []string {
	missing := make([]string, 0, 2)
	if strings.TrimSpace(c.APIToken) == "" {
		missing = append(missing, "BRIGHTDATA_API_TOKEN")
	}
	if strings.TrimSpace(c.DatasetID) == "" {
		missing = append(missing, "BRIGHTDATA_INSTAGRAM_DATASET_ID")
	}
	return missing
}

// LookupBudget is the longest a single profile lookup can legitimately take:
// the progress wait, the snapshot retries and one slow request on top.
func (c BrightDataConfig) LookupBudget() time.Duration {
	maxWait := c.MaxWait
	if maxWait <= 0 {
		maxWait = constants.BrightDataConfig.MaxWait
	}
	interval := c.PollInterval
	if interval <= 0 {
		interval = constants.BrightDataConfig.PollInterval
	}
	attempts := c.FetchAttempts
	if attempts <= 0 {
		attempts = constants.BrightDataConfig.FetchAttempts
	}
	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = constants.BrightDataConfig.RequestTimeout
	}
	return maxWait + time.Duration(attempts)*interval + requestTimeout
}

// AnalysisBudget covers a lookup followed by a primary and a fallback model call.
func (c *Config) AnalysisBudget() time.Duration {
	return c.BrightData.LookupBudget() + 2*constants.AIConfig.RequestTimeout
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	AnalysisTTL time.Duration
}

type ServerConfig struct {
	Addr string
	Mode string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Wykra API"),
			Environment: getEnv("ENVIRONMENT", "local"),
		},
		BrightData: BrightDataConfig{
			APIToken:       getEnv("BRIGHTDATA_API_TOKEN", ""),
			DatasetID:      getEnv("BRIGHTDATA_INSTAGRAM_DATASET_ID", ""),
			BaseURL:        getEnv("BRIGHTDATA_BASE_URL", constants.BrightDataConfig.BaseURL),
			PollInterval:   getEnvSeconds("BRIGHTDATA_POLL_INTERVAL_SECONDS", constants.BrightDataConfig.PollInterval),
			MaxWait:        getEnvSeconds("BRIGHTDATA_MAX_WAIT_SECONDS", constants.BrightDataConfig.MaxWait),
			FetchAttempts:  getEnvInt("BRIGHTDATA_FETCH_ATTEMPTS", constants.BrightDataConfig.FetchAttempts),
			RequestTimeout: getEnvSeconds("BRIGHTDATA_REQUEST_TIMEOUT_SECONDS", constants.BrightDataConfig.RequestTimeout),
			SnapshotFormat: domain.SnapshotFormat(strings.ToLower(getEnv("BRIGHTDATA_SNAPSHOT_FORMAT", string(domain.SnapshotFormatJSON)))),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			Model:   getEnv("OPENROUTER_MODEL", constants.AIConfig.DefaultModel),
			BaseURL: getEnv("OPENROUTER_BASE_URL", constants.AIConfig.OpenRouterBaseURL),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", constants.AIConfig.DefaultGeminiModel),
			EnableFallback: getEnvBool("AI_ENABLE_FALLBACK", true),
		},
		Redis: RedisConfig{
			Enabled:     getEnvBool("REDIS_ENABLED", false),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnvInt("REDIS_PORT", 6379),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			AnalysisTTL: time.Duration(getEnvInt("ANALYSIS_CACHE_TTL_MINUTES", int(constants.CacheTTL.Analysis/time.Minute))) * time.Minute,
		},
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8000"),
			Mode: getEnv("SERVER_MODE", "release"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 1),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 5),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects malformed values only. Missing Bright Data credentials are
// reported per lookup so the server can still start and answer /health.
func (c *Config) Validate() error {
	if c.BrightData.BaseURL == "" {
		return fmt.Errorf("BRIGHTDATA_BASE_URL is required")
	}
	if c.BrightData.PollInterval <= 0 {
		return fmt.Errorf("BRIGHTDATA_POLL_INTERVAL_SECONDS must be positive")
	}
	if c.BrightData.MaxWait < c.BrightData.PollInterval {
		return fmt.Errorf("BRIGHTDATA_MAX_WAIT_SECONDS must be at least the poll interval")
	}
	if c.BrightData.FetchAttempts <= 0 {
		return fmt.Errorf("BRIGHTDATA_FETCH_ATTEMPTS must be positive")
	}
	if !c.BrightData.SnapshotFormat.IsValid() {
		return fmt.Errorf("BRIGHTDATA_SNAPSHOT_FORMAT must be json or csv, got %q", c.BrightData.SnapshotFormat)
	}
	if c.Redis.Enabled && c.Redis.AnalysisTTL <= 0 {
		return fmt.Errorf("ANALYSIS_CACHE_TTL_MINUTES must be positive when Redis is enabled")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvSeconds reads a (possibly fractional) number of seconds.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}
