package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/finance-ai/internal/config"
)

// Client is the Redis connection shared by the chat list cache and the rate
// limiter. Every key it hands out lives under one namespace so several
// deployments can share a database.
type Client struct {
	rdb       *redis.Client
	namespace string
}

func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return newClient(rdb, cfg.KeyPrefix), nil
}

func newClient(rdb *redis.Client, namespace string) *Client {
	return &Client{rdb: rdb, namespace: strings.TrimSuffix(namespace, ":")}
}

// key joins parts under the client namespace, e.g. "financeai:chats:<id>"
func (c *Client) key(parts ...string) string {
	if c.namespace == "" {
		return strings.Join(parts, ":")
	}
	return c.namespace + ":" + strings.Join(parts, ":")
}

// Ping backs the redis readiness check
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
