package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/Rrens/finance-ai/internal/domain"
)

// ChatListCache keeps each owner's ordered chat list in process memory.
// It stands in for the Redis cache when Redis is disabled.
type ChatListCache struct {
	cache *cache.Cache

	mu   sync.Mutex
	gens map[uuid.UUID]int64
}

// NewChatListCache creates a cache whose entries live for ttl
func NewChatListCache(ttl time.Duration) *ChatListCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChatListCache{
		cache: cache.New(ttl, 2*ttl),
		gens:  make(map[uuid.UUID]int64),
	}
}

// Get returns a copy of the cached list
func (c *ChatListCache) Get(ctx context.Context, ownerID uuid.UUID) ([]domain.Chat, bool, error) {
	x, found := c.cache.Get(ownerID.String())
	if !found {
		return nil, false, nil
	}
	cached := x.([]domain.Chat)
	out := make([]domain.Chat, len(cached))
	for i, chat := range cached {
		out[i] = copyChat(chat)
	}
	return out, true, nil
}

// Generation returns the owner's invalidation count
func (c *ChatListCache) Generation(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[ownerID], nil
}

// Set stores a copy of chats for ownerID unless the list was invalidated
// after gen was read
func (c *ChatListCache) Set(ctx context.Context, ownerID uuid.UUID, chats []domain.Chat, gen int64) error {
	stored := make([]domain.Chat, len(chats))
	for i, chat := range chats {
		stored[i] = copyChat(chat)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[ownerID] != gen {
		return nil
	}
	c.cache.Set(ownerID.String(), stored, cache.DefaultExpiration)
	return nil
}

// Invalidate drops the cached list for ownerID
func (c *ChatListCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[ownerID]++
	c.cache.Delete(ownerID.String())
	return nil
}

// FlushAll drops every cached list
func (c *ChatListCache) FlushAll(ctx context.Context) (int64, error) {
	n := int64(c.cache.ItemCount())
	c.cache.Flush()
	return n, nil
}
