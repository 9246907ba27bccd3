package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External services
	RatesAPIURL string // USD/VES quote provider (BCV + parallel)

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	RateCacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// PostgREST
	PostgrestURL        string
	PostgrestAnonKey    string
	PostgrestServiceKey string
	UsePostgrest        bool

	// Dev mode
	DevSeed bool // DEV_SEED=true loads sample accounts into the memory store
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RatesAPIURL: getEnv("RATES_API_URL", "https://ve.dolarapi.com/v1/dolares"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		RateCacheTTL: getEnvDuration("RATE_CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		PostgrestURL:        getEnv("POSTGREST_URL", ""),
		PostgrestAnonKey:    getEnv("POSTGREST_ANON_KEY", ""),
		PostgrestServiceKey: getEnv("POSTGREST_SERVICE_ROLE_KEY", ""),
		UsePostgrest:        getEnv("USE_POSTGREST", "false") == "true",

		DevSeed: getEnv("DEV_SEED", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
