// Package cache keeps the latest device state in Redis so reads do not hit
// sqlite and every API instance sees the same snapshot.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pulse_monitor/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "ppg:device:"
	DefaultTTL = 5 * time.Minute
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection with PING.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func latestKey(deviceID string) string {
	return keyPrefix + deviceID + ":latest"
}

// SetLatest stores s under its device id.
func (c *RedisCache) SetLatest(ctx context.Context, s models.DeviceState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal device state: %w", err)
	}
	if err := c.client.Set(ctx, latestKey(s.DeviceID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache device state %q: %w", s.DeviceID, err)
	}
	return nil
}

// GetLatest returns the cached state and whether it was present.
func (c *RedisCache) GetLatest(ctx context.Context, deviceID string) (models.DeviceState, bool, error) {
	data, err := c.client.Get(ctx, latestKey(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.DeviceState{}, false, nil
		}
		return models.DeviceState{}, false, fmt.Errorf("get cached state %q: %w", deviceID, err)
	}
	var s models.DeviceState
	if err := json.Unmarshal(data, &s); err != nil {
		return models.DeviceState{}, false, fmt.Errorf("unmarshal cached state %q: %w", deviceID, err)
	}
	return s, true, nil
}

// Forget drops the cached state of deviceID.
func (c *RedisCache) Forget(ctx context.Context, deviceID string) error {
	return c.client.Del(ctx, latestKey(deviceID)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
