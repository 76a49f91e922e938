// Package events fans chat changes out to live subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/domain"
)

const topicPrefix = "owner."

// Mirror receives a copy of every published event
type Mirror interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Bus is an in-process publish/subscribe channel keyed by owner. Events for
// owners with no subscriber are dropped.
type Bus struct {
	pubsub  *gochannel.GoChannel
	mirrors []Mirror
}

// NewBus creates a new event bus
func NewBus(cfg config.EventsConfig, mirrors ...Mirror) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: cfg.BufferSize},
		NewLogger(),
	)
	return &Bus{pubsub: pubsub, mirrors: mirrors}
}

func topic(ownerID uuid.UUID) string {
	return topicPrefix + ownerID.String()
}

// Publish delivers event to the owner's subscribers and to every mirror.
// Mirror failures are logged, not returned.
func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(event.Type))

	if err := b.pubsub.Publish(topic(event.OwnerID), msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	for _, m := range b.mirrors {
		if err := m.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("type", string(event.Type)).Msg("Failed to mirror event")
		}
	}
	return nil
}

// Subscribe streams the owner's events until ctx is cancelled
func (b *Bus) Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan domain.Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan domain.Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var event domain.Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed event")
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Close stops the bus and closes every subscription
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
