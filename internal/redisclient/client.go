package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when a cached entry is absent.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetGuestCart reads the raw guest cart entry. A missing key returns
// ErrCacheMiss.
func (c *Client) GetGuestCart(ctx context.Context, guestID string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, guestCartKey(guestID)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("guest cart read failed: %w", err)
	}
	return payload, nil
}

// SetGuestCart replaces the guest cart entry and refreshes its TTL.
func (c *Client) SetGuestCart(ctx context.Context, guestID string, payload []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, guestCartKey(guestID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("guest cart write failed: %w", err)
	}
	return nil
}

// DeleteGuestCart removes the guest cart entry. Deleting an absent entry is
// not an error.
func (c *Client) DeleteGuestCart(ctx context.Context, guestID string) error {
	return c.rdb.Del(ctx, guestCartKey(guestID)).Err()
}

func guestCartKey(guestID string) string {
	return fmt.Sprintf("guestcart:%s", guestID)
}

// GetCatalogCache reads the cached product list.
func (c *Client) GetCatalogCache(ctx context.Context) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, catalogCacheKey).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// SetCatalogCache stores the product list with a TTL.
func (c *Client) SetCatalogCache(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, catalogCacheKey, payload, ttl).Err()
}

// InvalidateCatalogCache drops the cached product list after an admin
// mutation.
func (c *Client) InvalidateCatalogCache(ctx context.Context) error {
	return c.rdb.Del(ctx, catalogCacheKey).Err()
}

const catalogCacheKey = "catalog:products"
