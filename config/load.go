package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Load reads the environment. Missing required keys or unparsable values panic
// so a misconfigured process never starts serving.
func Load() App {
	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		JWTTTL:      duration("JWT_TTL", 24*time.Hour),
		Env:         getenv("APP_ENV", "dev"),

		RentalPeriod: duration("RENTAL_PERIOD", 14*24*time.Hour),

		DBMaxConns:       int32(integer("DB_MAX_CONNS", 10)),
		DBLockTimeout:    duration("DB_LOCK_TIMEOUT", 2*time.Second),
		TxAttemptTimeout: duration("TX_ATTEMPT_TIMEOUT", 5*time.Second),
		TxMaxAttempts:    integer("TX_MAX_ATTEMPTS", 4),
		TxRetryBaseDelay: duration("TX_RETRY_BASE_DELAY", 20*time.Millisecond),
	}
	if cfg.IsProd() && cfg.JWTSecret == "local_dev_secret" {
		invalid("JWT_SECRET", "dev secret in production")
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}

func duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		invalid(k, v)
	}
	return d
}

func integer(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		invalid(k, v)
	}
	return n
}

func invalid(k, v string) {
	slog.Error("invalid env value", "key", k, "value", v)
	panic("invalid env " + k)
}
