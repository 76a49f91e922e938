package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Rrens/finance-ai/internal/domain"
)

const (
	chatListSegment    = "chats"
	chatGenSegment     = "chatgen"
	defaultChatListTTL = 5 * time.Minute
	chatGenTTL         = 24 * time.Hour
)

// setIfGeneration writes the list only while the owner's generation is
// unchanged. A missing generation key counts as 0.
var setIfGeneration = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// ChatListCache caches each owner's ordered chat list in Redis
type ChatListCache struct {
	client *Client
	ttl    time.Duration
}

// NewChatListCache creates a new chat list cache
func NewChatListCache(client *Client, ttl time.Duration) *ChatListCache {
	if ttl <= 0 {
		ttl = defaultChatListTTL
	}
	return &ChatListCache{client: client, ttl: ttl}
}

func (c *ChatListCache) chatListKey(ownerID uuid.UUID) string {
	return c.client.key(chatListSegment, ownerID.String())
}

func (c *ChatListCache) chatGenKey(ownerID uuid.UUID) string {
	return c.client.key(chatGenSegment, ownerID.String())
}

// Get retrieves the cached chat list for an owner
func (c *ChatListCache) Get(ctx context.Context, ownerID uuid.UUID) ([]domain.Chat, bool, error) {
	data, err := c.client.rdb.Get(ctx, c.chatListKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read chat list cache: %w", err)
	}

	chats := []domain.Chat{}
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal chat list: %w", err)
	}

	return chats, true, nil
}

// Generation reads the owner's invalidation counter
func (c *ChatListCache) Generation(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	gen, err := c.client.rdb.Get(ctx, c.chatGenKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read chat list generation: %w", err)
	}
	return gen, nil
}

// Set caches the chat list for an owner if no invalidation happened since
// gen was read
func (c *ChatListCache) Set(ctx context.Context, ownerID uuid.UUID, chats []domain.Chat, gen int64) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chat list: %w", err)
	}

	keys := []string{c.chatListKey(ownerID), c.chatGenKey(ownerID)}
	args := []any{strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds()}
	if err := setIfGeneration.Run(ctx, c.client.rdb, keys, args...).Err(); err != nil {
		return fmt.Errorf("failed to write chat list cache: %w", err)
	}
	return nil
}

// Invalidate bumps the owner's generation and removes the cached list
func (c *ChatListCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	genKey := c.chatGenKey(ownerID)

	pipe := c.client.rdb.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, chatGenTTL)
	pipe.Del(ctx, c.chatListKey(ownerID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate chat list cache: %w", err)
	}
	return nil
}

// FlushAll removes all cached chat lists. Generations are kept so a read
// in flight cannot repopulate a list invalidated before the flush.
func (c *ChatListCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := c.client.key(chatListSegment, "*")
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
