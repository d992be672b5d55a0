/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	DBBackend     DatabaseBackend
	DBDSN         string
	JWTSigningKey string
	MetricsBind   string

	// Booking
	SlotStep         time.Duration // spacing of candidate start times
	ResolverWorkers  int           // 0 = GOMAXPROCS
	PublicRateLimit  int           // requests per minute per IP on public booking routes
	BusyFetchTimeout time.Duration

	// Google Calendar (tokens are issued elsewhere; client credentials enable refresh)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Cache
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Event forwarding; empty URL keeps events in-process
	NATSURL string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads an optional .env file and environment variables, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(getEnv("SLOTWISE_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read env file: %w", err)
	}

	cfg := &Config{
		Environment:   getEnvAny([]string{"SLOTWISE_ENV"}, "development"),
		HTTPBind:      getEnvAny([]string{"SLOTWISE_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:      getEnvIntAny([]string{"SLOTWISE_HTTP_PORT", "PORT"}, 8080),
		DBBackend:     DatabaseBackend(getEnvAny([]string{"SLOTWISE_DB_BACKEND"}, string(DatabasePostgres))),
		DBDSN:         getEnvAny([]string{"SLOTWISE_DB_DSN", "DATABASE_URL"}, ""),
		JWTSigningKey: getEnvAny([]string{"SLOTWISE_JWT_SIGNING_KEY"}, ""),
		MetricsBind:   getEnvAny([]string{"SLOTWISE_METRICS_BIND"}, "127.0.0.1:9000"),

		SlotStep:         time.Duration(getEnvIntAny([]string{"SLOTWISE_SLOT_STEP_MINUTES"}, 15)) * time.Minute,
		ResolverWorkers:  getEnvIntAny([]string{"SLOTWISE_RESOLVER_WORKERS"}, 0),
		PublicRateLimit:  getEnvIntAny([]string{"SLOTWISE_PUBLIC_RATE_LIMIT"}, 60),
		BusyFetchTimeout: time.Duration(getEnvIntAny([]string{"SLOTWISE_BUSY_FETCH_TIMEOUT_SECONDS"}, 15)) * time.Second,

		GoogleClientID:     getEnvAny([]string{"SLOTWISE_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID"}, ""),
		GoogleClientSecret: getEnvAny([]string{"SLOTWISE_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET"}, ""),
		GoogleRedirectURL:  getEnvAny([]string{"SLOTWISE_GOOGLE_REDIRECT_URL", "GOOGLE_REDIRECT_URI"}, ""),

		CacheEnabled:  getEnvBoolAny([]string{"SLOTWISE_CACHE_ENABLED"}, false),
		RedisAddr:     getEnvAny([]string{"SLOTWISE_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"SLOTWISE_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"SLOTWISE_REDIS_DB"}, 0),

		NATSURL: getEnvAny([]string{"SLOTWISE_NATS_URL"}, ""),

		TracingEnabled:    getEnvBoolAny([]string{"SLOTWISE_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"SLOTWISE_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"SLOTWISE_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("SLOTWISE_DB_DSN or DATABASE_URL must be provided")
	}

	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("SLOTWISE_JWT_SIGNING_KEY must be provided")
	}

	if cfg.SlotStep <= 0 {
		return nil, fmt.Errorf("SLOTWISE_SLOT_STEP_MINUTES must be positive")
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.GoogleClientID != "" && cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("SLOTWISE_GOOGLE_CLIENT_SECRET is required when a Google client id is set in production")
	}

	return cfg, nil
}

// GoogleRefreshEnabled reports whether stored calendar tokens can be refreshed.
func (c *Config) GoogleRefreshEnabled() bool {
	return c != nil && c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
