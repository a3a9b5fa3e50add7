package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL         string
	AuthKey         string
	UserAgent       string
	PollInterval    time.Duration
	ErrorRetryDelay time.Duration
	RetryBase       time.Duration
	MaxRetries      int
	BusCapacity     int
	CursorPath      string
	DatabaseURL     string
	NatsURL         string
	Port            int
	LogLevel        string
}

func Load() Config {
	return Config{
		BaseURL:         envStr("TW_BASE_URL", "https://funpay.com"),
		AuthKey:         envStr("TW_AUTH_KEY", ""),
		UserAgent:       envStr("TW_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"),
		PollInterval:    envDur("TW_POLL_INTERVAL_MS", 1500),
		ErrorRetryDelay: envDur("TW_ERROR_RETRY_DELAY_MS", 5000),
		RetryBase:       envDur("TW_RETRY_BASE_MS", 20),
		MaxRetries:      envInt("TW_MAX_RETRIES", 3),
		BusCapacity:     envInt("TW_BUS_CAPACITY", 512),
		CursorPath:      envStr("TW_CURSOR_PATH", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		Port:            envInt("TW_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallbackMillis int) time.Duration {
	return time.Duration(envInt(key, fallbackMillis)) * time.Millisecond
}
