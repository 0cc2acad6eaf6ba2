// Package cache holds the Redis read-through cache for free slots.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "reserva:availability"

// retryAfter is how long the cache stays bypassed after a Redis failure.
const retryAfter = time.Minute

// AvailabilityCache stores free slot lists per room and day. A failing Redis
// turns the cache into a pass-through until retryAfter has elapsed.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

// NewAvailabilityCache wraps client. ttl <= 0 defaults to 30 seconds.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func key(roomID, date string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, roomID, date)
}

// Get returns cached slots for the room and day.
func (c *AvailabilityCache) Get(ctx context.Context, roomID, date string) ([]string, bool) {
	if !c.available() {
		return nil, false
	}

	val, err := c.client.Get(ctx, key(roomID, date)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.markDown(err)
		return nil, false
	}

	var slots []string
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		c.logger.Warn().Err(err).Str("room_id", roomID).Str("date", date).Msg("corrupt cache entry")
		return nil, false
	}
	return slots, true
}

// Set stores slots for the room and day.
func (c *AvailabilityCache) Set(ctx context.Context, roomID, date string, slots []string) {
	if !c.available() {
		return
	}
	if slots == nil {
		slots = []string{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(roomID, date), data, c.ttl).Err(); err != nil {
		c.markDown(err)
	}
}

// Invalidate drops the cached day, or every day of the room when date is empty.
// It always reaches Redis so a recovering instance does not serve stale lists.
func (c *AvailabilityCache) Invalidate(ctx context.Context, roomID, date string) {
	if date != "" {
		if err := c.client.Del(ctx, key(roomID, date)).Err(); err != nil {
			c.markDown(err)
		}
		return
	}

	iter := c.client.Scan(ctx, 0, key(roomID, "*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.markDown(err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.markDown(err)
	}
}

// Ping checks the Redis connection.
func (c *AvailabilityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *AvailabilityCache) available() bool {
	if !c.isDown.Load() {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastCheck) < retryAfter {
		return false
	}
	c.lastCheck = time.Now()
	c.isDown.Store(false)
	c.logger.Info().Msg("retrying redis")
	return true
}

func (c *AvailabilityCache) markDown(err error) {
	c.mu.Lock()
	c.lastCheck = time.Now()
	c.mu.Unlock()

	if !c.isDown.Swap(true) {
		c.logger.Warn().Err(err).Msg("redis unavailable, bypassing availability cache")
	}
}
