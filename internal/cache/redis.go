// Package cache implements the session cache: a short-TTL Redis copy of
// the authenticated user, consulted before the credential store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/contactsbook/apiserver/config"
	"github.com/contactsbook/apiserver/types"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is not in Redis.
// Callers use errors.Is to distinguish a true miss from an
// infrastructure failure.
var ErrCacheMiss = errors.New("cache miss")

const defaultSessionTTL = 300 * time.Second

// SessionCache stores JSON snapshots of users keyed by email. Entries
// expire after the configured TTL and are never actively invalidated;
// consumers accept staleness bounded by the TTL.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache connects to Redis and verifies the connection.
func NewSessionCache(ctx context.Context, cfg config.RedisConfig) (*SessionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &SessionCache{client: client, ttl: ttl}, nil
}

// Get returns the cached user snapshot for the email, or ErrCacheMiss.
func (c *SessionCache) Get(ctx context.Context, email string) (types.User, error) {
	data, err := c.client.Get(ctx, email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.User{}, ErrCacheMiss
		}
		return types.User{}, err
	}

	var user types.User
	if err := json.Unmarshal(data, &user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Set stores a user snapshot under its email with the session TTL. The
// JSON encoding drops the password hash and refresh token, so the cache
// never holds credentials.
func (c *SessionCache) Set(ctx context.Context, user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, user.Email, data, c.ttl).Err()
}

// Close releases the underlying Redis connection.
func (c *SessionCache) Close() error {
	return c.client.Close()
}
