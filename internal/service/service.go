package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/llm"
)

// ChatListCache caches each owner's ordered chat list. Get reports a miss
// with found == false. Every Invalidate advances the owner's generation, and
// Set stores nothing unless the generation still equals gen, so a list read
// before a mutation is never cached after it.
type ChatListCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) (chats []domain.Chat, found bool, err error)
	Generation(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Set(ctx context.Context, ownerID uuid.UUID, chats []domain.Chat, gen int64) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
	FlushAll(ctx context.Context) (int64, error)
}

// Publisher broadcasts domain events after successful mutations
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Completer runs one chat completion against a named provider
type Completer interface {
	Complete(ctx context.Context, provider string, req llm.Request) (*llm.Response, error)
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID) ([]domain.Chat, bool, error) { return nil, false, nil }
func (nopCache) Generation(context.Context, uuid.UUID) (int64, error)        { return 0, nil }
func (nopCache) Set(context.Context, uuid.UUID, []domain.Chat, int64) error  { return nil }
func (nopCache) Invalidate(context.Context, uuid.UUID) error                 { return nil }
func (nopCache) FlushAll(context.Context) (int64, error)                     { return 0, nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) error { return nil }

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// now is a variable so tests can step the clock
var now = func() time.Time {
	return time.Now().UTC()
}

// messageTick is the smallest gap every store keeps between two timestamps
const messageTick = time.Millisecond

func invalidate(ctx context.Context, cache ChatListCache, ownerID uuid.UUID) {
	if err := cache.Invalidate(ctx, ownerID); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to invalidate chat list cache")
	}
}

func publish(ctx context.Context, p Publisher, event domain.Event) {
	event.OccurredAt = now()
	if err := p.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("type", string(event.Type)).Msg("Failed to publish event")
	}
}
