package config

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"FINNHUB_API_KEY": "key"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.JWTExpirationDur != 30*time.Minute {
		t.Errorf("expected 30m token expiry, got %v", cfg.JWTExpirationDur)
	}
	if cfg.FinnhubBaseURL != defaultFinnhubBaseURL {
		t.Errorf("expected default Finnhub URL, got %s", cfg.FinnhubBaseURL)
	}
	if cfg.QuoteRequestTimeout != 10*time.Second {
		t.Errorf("expected 10s quote timeout, got %v", cfg.QuoteRequestTimeout)
	}
	if cfg.DBConnectAttempts != 5 || cfg.DBConnectRetryDelay != 2*time.Second {
		t.Errorf("expected 5 connect attempts 2s apart, got %d/%v", cfg.DBConnectAttempts, cfg.DBConnectRetryDelay)
	}
	if cfg.QuoteMaxConcurrency != 0 || cfg.QuoteRateLimitPerMinute != 0 {
		t.Errorf("expected unbounded, unlimited quote fetching by default, got %d/%d",
			cfg.QuoteMaxConcurrency, cfg.QuoteRateLimitPerMinute)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"FINNHUB_API_KEY":             "key",
		"PORT":                        "9000",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "5",
		"QUOTE_REQUEST_TIMEOUT":       "2s",
		"QUOTE_MAX_CONCURRENCY":       "4",
		"QUOTE_RATE_LIMIT_PER_MINUTE": "60",
		"DB_CONNECT_ATTEMPTS":         "10",
		"DB_CONNECT_RETRY_DELAY":      "500ms",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.JWTExpirationDur != 5*time.Minute {
		t.Errorf("expected 5m, got %v", cfg.JWTExpirationDur)
	}
	if cfg.QuoteRequestTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.QuoteRequestTimeout)
	}
	if cfg.QuoteMaxConcurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.QuoteMaxConcurrency)
	}
	if cfg.QuoteRateLimitPerMinute != 60 {
		t.Errorf("expected rate limit 60, got %d", cfg.QuoteRateLimitPerMinute)
	}
	if cfg.DBConnectAttempts != 10 || cfg.DBConnectRetryDelay != 500*time.Millisecond {
		t.Errorf("expected 10 attempts 500ms apart, got %d/%v", cfg.DBConnectAttempts, cfg.DBConnectRetryDelay)
	}
}

func TestFromEnv_APIKeyOptional(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{}))
	if err != nil {
		t.Fatalf("expected config without FINNHUB_API_KEY to load, got %v", err)
	}
	if cfg.FinnhubAPIKey != "" {
		t.Errorf("expected empty API key, got %q", cfg.FinnhubAPIKey)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero connect attempts", map[string]string{"DB_CONNECT_ATTEMPTS": "0"}},
		{"bad retry delay", map[string]string{"DB_CONNECT_RETRY_DELAY": "later"}},
		{"negative retry delay", map[string]string{"DB_CONNECT_RETRY_DELAY": "-1s"}},
		{"bad expiry", map[string]string{"FINNHUB_API_KEY": "k", "ACCESS_TOKEN_EXPIRE_MINUTES": "soon"}},
		{"zero expiry", map[string]string{"FINNHUB_API_KEY": "k", "ACCESS_TOKEN_EXPIRE_MINUTES": "0"}},
		{"bad timeout", map[string]string{"FINNHUB_API_KEY": "k", "QUOTE_REQUEST_TIMEOUT": "fast"}},
		{"negative timeout", map[string]string{"FINNHUB_API_KEY": "k", "QUOTE_REQUEST_TIMEOUT": "-1s"}},
		{"negative concurrency", map[string]string{"FINNHUB_API_KEY": "k", "QUOTE_MAX_CONCURRENCY": "-2"}},
		{"bad rate limit", map[string]string{"FINNHUB_API_KEY": "k", "QUOTE_RATE_LIMIT_PER_MINUTE": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(envMap(tt.env)); err == nil {
				t.Errorf("expected error for %v", tt.env)
			}
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := cfg.DatabaseURL(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
