package infra

import (
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	ReplicateAPIToken string
	ReplicateBaseURL  string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	GenerationPollInterval   time.Duration
	GenerationMaxPollRetries int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Remote-service credentials are optional: the
// generation pipeline reports a configuration error per request and the
// scene analyzer degrades to the rule-based fallback, so startup never
// fails on a missing API key.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		GenerationPollInterval:   time.Millisecond * time.Duration(getEnvInt("GENERATION_POLL_INTERVAL_MS", 1000)),
		GenerationMaxPollRetries: getEnvInt("GENERATION_MAX_POLL_ATTEMPTS", 180),
	}

	if cfg.GenerationPollInterval <= 0 {
		cfg.GenerationPollInterval = time.Second
	}
	if cfg.GenerationMaxPollRetries <= 0 {
		cfg.GenerationMaxPollRetries = 180
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
