package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client wraps redis.Client and fails safe: connectivity errors read as a
// cache miss and writes are dropped with a warning. A nil Client is a no-op.
type Client struct {
	client *redis.Client
}

// New returns nil when addr is empty so callers can treat redis as optional.
func New(addr, password string, db int) *Client {
	if addr == "" {
		return nil
	}
	return &Client{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get returns the value or nil if the key is missing or redis is unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("redis get failed")
		return nil, nil
	}
	return res, nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("redis set failed")
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("redis delete failed")
	}
	return nil
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
