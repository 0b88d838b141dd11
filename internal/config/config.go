package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// Config holds application configuration. It is built once at startup and
// passed by value to the components that need it.
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// DBConnectAttempts bounds how often startup tries to reach the database,
	// waiting DBConnectRetryDelay between attempts.
	DBConnectAttempts   int
	DBConnectRetryDelay time.Duration

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Quote provider
	FinnhubAPIKey           string
	FinnhubBaseURL          string
	QuoteRequestTimeout     time.Duration
	QuoteMaxConcurrency     int
	QuoteRateLimitPerMinute int
}

// Load loads configuration from a .env file (if present) and environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function. Missing keys fall
// back to development defaults. FINNHUB_API_KEY is not checked here so that
// tools which never price quotes, such as the migrator, run without it.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, defaultValue string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	cfg := Config{
		// Server
		Port: env("PORT", "8080"),
		Env:  env("ENV", "development"),

		// Database
		DBHost:     env("DB_HOST", "localhost"),
		DBPort:     env("DB_PORT", "5432"),
		DBUser:     env("DB_USER", "tradeflow"),
		DBPassword: env("DB_PASSWORD", "tradeflow"),
		DBName:     env("DB_NAME", "tradeflow"),
		DBSSLMode:  env("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: env("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Quote provider
		FinnhubAPIKey:  getenv("FINNHUB_API_KEY"),
		FinnhubBaseURL: env("FINNHUB_BASE_URL", defaultFinnhubBaseURL),
	}

	minutes, err := parseNonNegativeInt("ACCESS_TOKEN_EXPIRE_MINUTES", env("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if err != nil {
		return Config{}, err
	}
	if minutes == 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	cfg.JWTExpirationDur = time.Duration(minutes) * time.Minute

	if cfg.DBConnectAttempts, err = parseNonNegativeInt("DB_CONNECT_ATTEMPTS", env("DB_CONNECT_ATTEMPTS", "5")); err != nil {
		return Config{}, err
	}
	if cfg.DBConnectAttempts == 0 {
		return Config{}, fmt.Errorf("DB_CONNECT_ATTEMPTS must be positive")
	}
	if cfg.DBConnectRetryDelay, err = time.ParseDuration(env("DB_CONNECT_RETRY_DELAY", "2s")); err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONNECT_RETRY_DELAY: %w", err)
	}
	if cfg.DBConnectRetryDelay < 0 {
		return Config{}, fmt.Errorf("DB_CONNECT_RETRY_DELAY must not be negative, got %v", cfg.DBConnectRetryDelay)
	}

	timeout, err := time.ParseDuration(env("QUOTE_REQUEST_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid QUOTE_REQUEST_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("QUOTE_REQUEST_TIMEOUT must be positive, got %v", timeout)
	}
	cfg.QuoteRequestTimeout = timeout

	if cfg.QuoteMaxConcurrency, err = parseNonNegativeInt("QUOTE_MAX_CONCURRENCY", env("QUOTE_MAX_CONCURRENCY", "0")); err != nil {
		return Config{}, err
	}
	if cfg.QuoteRateLimitPerMinute, err = parseNonNegativeInt("QUOTE_RATE_LIMIT_PER_MINUTE", env("QUOTE_RATE_LIMIT_PER_MINUTE", "0")); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DatabaseURL returns the postgres:// URL understood by golang-migrate.
func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func parseNonNegativeInt(key, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, n)
	}
	return n, nil
}
