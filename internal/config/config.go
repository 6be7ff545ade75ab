package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Credentials of the default tenant. They seed the tenant table on first
	// start; stored values win afterwards.
	ProviderBaseURL  string
	ProviderToken    string
	ProviderInstance string
	DefaultTenant    string

	ProbeTimeout   time.Duration
	ProbeRetries   int
	CandidatesFile string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	LogLevel  string
	LogFormat string

	RateLimitRPS   float64
	RateLimitBurst int

	StatusPollInterval time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		ProviderBaseURL:    getEnv("PROVIDER_BASE_URL", ""),
		ProviderToken:      getEnv("PROVIDER_TOKEN", ""),
		ProviderInstance:   getEnv("PROVIDER_INSTANCE", ""),
		DefaultTenant:      getEnv("DEFAULT_TENANT", "default"),
		ProbeTimeout:       getDuration("PROBE_TIMEOUT", 12*time.Second),
		ProbeRetries:       getInt("PROBE_RETRIES", 1),
		CandidatesFile:     getEnv("CANDIDATES_FILE", ""),
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		DBPath:             getEnv("DB_PATH", "./gateway.db"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", "gateway"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		RateLimitRPS:       getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 10),
		StatusPollInterval: getDuration("STATUS_POLL_INTERVAL", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("12s") and bare seconds ("12").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", fallback)
	return fallback
}
