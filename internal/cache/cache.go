/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for host schedules and
// meeting type listings.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/friendsincode/slotwise/internal/availability"
	"github.com/friendsincode/slotwise/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Default TTL values for different cache types
const (
	DefaultScheduleTTL  = 10 * time.Minute
	DefaultEventListTTL = 5 * time.Minute
)

// Key prefixes for Redis cache
const (
	KeySchedule  = "slotwise:cache:schedule:" // + host_id
	KeyEventList = "slotwise:cache:events:"   // + host_id
	keyAll       = "slotwise:cache:*"
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ScheduleTTL  time.Duration
	EventListTTL time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		ScheduleTTL:    DefaultScheduleTTL,
		EventListTTL:   DefaultEventListTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback. A nil *Cache
// behaves as a permanently disabled cache.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// Use SCAN to find keys (safer than KEYS for production)
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// Schedule caching methods

// CachedSchedule is the cached form of a host's weekly schedule. Found is
// false when the host has no schedule, so absence is cached too.
type CachedSchedule struct {
	Found    bool                   `json:"found"`
	Schedule *availability.Schedule `json:"schedule,omitempty"`
}

// GetSchedule retrieves a cached schedule for host.
func (c *Cache) GetSchedule(ctx context.Context, hostID string) (*CachedSchedule, bool) {
	var cached CachedSchedule
	found, err := c.get(ctx, KeySchedule+hostID, &cached)
	if err != nil || !found {
		telemetry.CacheRequestsTotal.WithLabelValues("schedule", "miss").Inc()
		return nil, false
	}
	telemetry.CacheRequestsTotal.WithLabelValues("schedule", "hit").Inc()
	c.logger.Debug().Str("host_id", hostID).Msg("schedule cache hit")
	return &cached, true
}

// SetSchedule caches schedule for host. A nil schedule records absence.
func (c *Cache) SetSchedule(ctx context.Context, hostID string, schedule *availability.Schedule) error {
	if !c.IsAvailable() {
		return nil
	}
	return c.set(ctx, KeySchedule+hostID, CachedSchedule{Found: schedule != nil, Schedule: schedule}, c.config.ScheduleTTL)
}

// InvalidateSchedule removes the cached schedule for host.
func (c *Cache) InvalidateSchedule(ctx context.Context, hostID string) error {
	return c.delete(ctx, KeySchedule+hostID)
}

// Meeting type caching methods

// CachedEvent is the public projection of a meeting type.
type CachedEvent struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	DurationInMinutes int    `json:"duration_in_minutes"`
}

// GetEventList retrieves the cached list of active meeting types for host.
func (c *Cache) GetEventList(ctx context.Context, hostID string) ([]CachedEvent, bool) {
	var list []CachedEvent
	found, err := c.get(ctx, KeyEventList+hostID, &list)
	if err != nil || !found {
		telemetry.CacheRequestsTotal.WithLabelValues("events", "miss").Inc()
		return nil, false
	}
	telemetry.CacheRequestsTotal.WithLabelValues("events", "hit").Inc()
	return list, true
}

// SetEventList caches the active meeting types for host.
func (c *Cache) SetEventList(ctx context.Context, hostID string, list []CachedEvent) error {
	if !c.IsAvailable() {
		return nil
	}
	return c.set(ctx, KeyEventList+hostID, list, c.config.EventListTTL)
}

// InvalidateEventList removes the cached meeting type list for host.
func (c *Cache) InvalidateEventList(ctx context.Context, hostID string) error {
	return c.delete(ctx, KeyEventList+hostID)
}

// InvalidateHost removes every cached entry for host.
func (c *Cache) InvalidateHost(ctx context.Context, hostID string) error {
	if err := c.InvalidateSchedule(ctx, hostID); err != nil {
		return err
	}
	return c.InvalidateEventList(ctx, hostID)
}

// FlushAll removes all slotwise cache entries.
func (c *Cache) FlushAll(ctx context.Context) error {
	return c.deletePattern(ctx, keyAll)
}
