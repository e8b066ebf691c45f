package constants

import "time"

var BrightDataConfig = struct {
	BaseURL        string
	PollInterval   time.Duration
	MaxWait        time.Duration
	FetchAttempts  int
	RequestTimeout time.Duration
	DiscoverBy     string
	DiscoverType   string
	MaxBodyPreview int
}{
	BaseURL:        "https://api.brightdata.com/datasets/v3",
	PollInterval:   5 * time.Second,   // progress polling interval
	MaxWait:        300 * time.Second, // total progress wait budget
	FetchAttempts:  5,                 // snapshot materialization retries
	RequestTimeout: 60 * time.Second,
	DiscoverBy:     "user_name",
	DiscoverType:   "discover_new",
	MaxBodyPreview: 500,
}

var CacheTTL = struct {
	Analysis time.Duration
}{
	Analysis: 6 * time.Hour,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
	KeyPrefix    string
}{
	ReadyTimeout: 5 * time.Second,
	KeyPrefix:    "wykra:",
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,                // 3 consecutive failures open the circuit
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    10 * time.Minute, // 429 from the model provider
	HealthCheckInterval: 5 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var AIConfig = struct {
	OpenRouterBaseURL  string
	DefaultModel       string
	DefaultGeminiModel string
	MaxOutputTokens    int
	Temperature        float32
	RequestTimeout     time.Duration
}{
	OpenRouterBaseURL:  "https://openrouter.ai/api/v1",
	DefaultModel:       "anthropic/claude-3.5-sonnet",
	DefaultGeminiModel: "gemini-2.5-flash",
	MaxOutputTokens:    4096,
	Temperature:        0.2,
	RequestTimeout:     90 * time.Second,
}

var ServerConfig = struct {
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	BatchConcurrency  int
}{
	ReadHeaderTimeout: 10 * time.Second,
	ShutdownTimeout:   10 * time.Second,
	BatchConcurrency:  4,
}
