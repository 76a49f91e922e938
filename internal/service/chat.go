package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/domain"
)

// ChatService owns chat creation, titles and ordering. Every operation acts
// for an explicit caller; uuid.Nil means no authenticated caller.
type ChatService struct {
	chats  domain.ChatRepository
	cache  ChatListCache
	events Publisher
}

// NewChatService creates a new chat service. cache and events may be nil.
func NewChatService(chats domain.ChatRepository, cache ChatListCache, events Publisher) *ChatService {
	if cache == nil {
		cache = nopCache{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &ChatService{chats: chats, cache: cache, events: events}
}

// List returns the caller's chats in display order. Without a caller it
// returns an empty list.
func (s *ChatService) List(ctx context.Context, callerID uuid.UUID) ([]domain.Chat, error) {
	if callerID == uuid.Nil {
		return []domain.Chat{}, nil
	}

	chats, found, err := s.cache.Get(ctx, callerID)
	if err != nil {
		log.Warn().Err(err).Msg("Chat list cache read failed")
	} else if found {
		return chats, nil
	}

	gen, genErr := s.cache.Generation(ctx, callerID)
	if genErr != nil {
		log.Warn().Err(genErr).Msg("Chat list cache generation read failed")
	}

	chats, err = s.chats.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, callerID, chats, gen); err != nil {
			log.Warn().Err(err).Msg("Chat list cache write failed")
		}
	}
	return chats, nil
}

// Create appends a new chat to the end of the caller's list
func (s *ChatService) Create(ctx context.Context, callerID uuid.UUID, title *string) (*domain.Chat, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	name := domain.DefaultChatTitle
	if title != nil {
		if trimmed := strings.TrimSpace(*title); trimmed != "" {
			name = trimmed
		}
	}
	if utf8.RuneCountInString(name) > domain.MaxTitleLength {
		return nil, domain.ErrTitleTooLong
	}

	existing, err := s.chats.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	position := 1
	for _, c := range existing {
		if c.Position >= position {
			position = c.Position + 1
		}
	}

	ts := now()
	chat := &domain.Chat{
		ID:        newID(),
		OwnerID:   callerID,
		Title:     name,
		Position:  position,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	invalidate(ctx, s.cache, callerID)
	publish(ctx, s.events, domain.Event{Type: domain.EventChatCreated, OwnerID: callerID, ChatID: chat.ID, Chat: chat})

	log.Debug().Str("chat_id", chat.ID.String()).Int("position", position).Msg("Chat created")
	return chat, nil
}

// Rename replaces a chat's title. A missing chat and a chat owned by
// someone else are both reported as forbidden.
func (s *ChatService) Rename(ctx context.Context, chatID uuid.UUID, title string, callerID uuid.UUID) (*domain.Chat, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, domain.ErrTitleTooLong
	}

	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil || chat.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}

	ts := now()
	if err := s.chats.UpdateTitle(ctx, chatID, title, ts); err != nil {
		return nil, fmt.Errorf("failed to rename chat: %w", err)
	}
	chat.Title = title
	chat.UpdatedAt = ts

	invalidate(ctx, s.cache, callerID)
	publish(ctx, s.events, domain.Event{Type: domain.EventChatRenamed, OwnerID: callerID, ChatID: chat.ID, Chat: chat})

	return chat, nil
}

// Move swaps a chat with its neighbour in the caller's list. Moving past
// either end is a successful no-op.
func (s *ChatService) Move(ctx context.Context, chatID uuid.UUID, direction domain.Direction, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return domain.ErrUnauthenticated
	}
	if !direction.Valid() {
		return domain.ErrInvalidDirection
	}

	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil {
		return domain.ErrNotFound
	}
	if chat.OwnerID != callerID {
		return domain.ErrForbidden
	}

	chats, err := s.chats.ListByOwner(ctx, callerID)
	if err != nil {
		return fmt.Errorf("failed to list chats: %w", err)
	}

	idx := indexOf(chats, chatID)
	if idx < 0 {
		return domain.ErrNotFound
	}

	neighbour := idx - 1
	if direction == domain.DirectionDown {
		neighbour = idx + 1
	}
	if neighbour < 0 || neighbour >= len(chats) {
		return nil
	}

	current, other := chats[idx], chats[neighbour]
	if current.Position != other.Position {
		err = s.chats.SwapPositions(ctx, current, other)
	} else {
		// Equal positions would make a swap invisible; renumber instead.
		chats[idx], chats[neighbour] = chats[neighbour], chats[idx]
		err = s.chats.SetPositions(ctx, callerID, ids(chats))
	}
	if err != nil {
		return fmt.Errorf("failed to move chat: %w", err)
	}

	s.afterReorder(ctx, callerID)
	return nil
}

// Reorder applies the caller's desired order. Unknown or foreign IDs are
// skipped, duplicates keep their first occurrence, and owned chats missing
// from orderedIDs follow in their previous order so positions stay dense.
func (s *ChatService) Reorder(ctx context.Context, orderedIDs []uuid.UUID, callerID uuid.UUID) ([]domain.Chat, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	owned, err := s.chats.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	final := mergeOrder(ids(owned), orderedIDs)
	if err := s.chats.SetPositions(ctx, callerID, final); err != nil {
		return nil, fmt.Errorf("failed to reorder chats: %w", err)
	}

	return s.afterReorder(ctx, callerID), nil
}

// MoveTo drops source onto target's slot, shifting the chats in between.
func (s *ChatService) MoveTo(ctx context.Context, sourceID, targetID, callerID uuid.UUID) ([]domain.Chat, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	chats, err := s.chats.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	from, to := indexOf(chats, sourceID), indexOf(chats, targetID)
	if from < 0 || to < 0 {
		return nil, domain.ErrNotFound
	}
	if from == to {
		return chats, nil
	}

	order := ids(chats)
	moved := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order[:to], append([]uuid.UUID{moved}, order[to:]...)...)

	return s.Reorder(ctx, order, callerID)
}

// afterReorder refreshes the cache and notifies subscribers. It returns the
// fresh list, or nil if it could not be read.
func (s *ChatService) afterReorder(ctx context.Context, callerID uuid.UUID) []domain.Chat {
	invalidate(ctx, s.cache, callerID)

	chats, err := s.chats.ListByOwner(ctx, callerID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to reload chats after reorder")
		return nil
	}

	publish(ctx, s.events, domain.Event{Type: domain.EventChatsReordered, OwnerID: callerID, Chats: chats})
	return chats
}

// mergeOrder keeps requested IDs that appear in owned, first occurrence
// only, then appends the rest of owned in its existing order.
func mergeOrder(owned, requested []uuid.UUID) []uuid.UUID {
	ownedSet := make(map[uuid.UUID]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{}, len(owned))
	final := make([]uuid.UUID, 0, len(owned))
	for _, id := range requested {
		if _, ok := ownedSet[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		final = append(final, id)
	}
	for _, id := range owned {
		if _, ok := seen[id]; !ok {
			final = append(final, id)
		}
	}
	return final
}

func ids(chats []domain.Chat) []uuid.UUID {
	out := make([]uuid.UUID, len(chats))
	for i, c := range chats {
		out[i] = c.ID
	}
	return out
}

func indexOf(chats []domain.Chat, id uuid.UUID) int {
	for i, c := range chats {
		if c.ID == id {
			return i
		}
	}
	return -1
}
