// Package memory is a process-local store for development and tests. It
// keeps every record in maps guarded by one RWMutex, so each repository call
// is atomic with respect to the others.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/finance-ai/internal/domain"
)

// Store holds users, chats and messages in memory
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]domain.User
	chats    map[uuid.UUID]domain.Chat
	messages map[uuid.UUID][]domain.Message
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		chats:    make(map[uuid.UUID]domain.Chat),
		messages: make(map[uuid.UUID][]domain.Message),
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// UserRepository implements domain.UserRepository
type UserRepository struct{ s *Store }

// NewUserRepository creates a user repository over s
func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

// ChatRepository implements domain.ChatRepository
type ChatRepository struct{ s *Store }

// NewChatRepository creates a chat repository over s
func NewChatRepository(s *Store) *ChatRepository { return &ChatRepository{s: s} }

func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.chats[chat.ID] = copyChat(*chat)
	return nil
}

func (r *ChatRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chats[id]
	if !ok {
		return nil, nil
	}
	c = copyChat(c)
	return &c, nil
}

func (r *ChatRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.ownedLocked(ownerID), nil
}

func (r *ChatRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.chats[id]; ok {
		c.Title = title
		c.UpdatedAt = updatedAt
		r.s.chats[id] = c
	}
	return nil
}

func (r *ChatRepository) UpdateBrief(ctx context.Context, id uuid.UUID, brief string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.chats[id]; ok {
		c.Brief = &brief
		c.UpdatedAt = updatedAt
		r.s.chats[id] = c
	}
	return nil
}

func (r *ChatRepository) SwapPositions(ctx context.Context, a, b domain.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ca, okA := r.s.chats[a.ID]
	cb, okB := r.s.chats[b.ID]
	if !okA || !okB {
		return nil
	}
	ca.Position, cb.Position = b.Position, a.Position
	r.s.chats[a.ID] = ca
	r.s.chats[b.ID] = cb
	return nil
}

func (r *ChatRepository) SetPositions(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, id := range orderedIDs {
		c, ok := r.s.chats[id]
		if !ok || c.OwnerID != ownerID {
			continue
		}
		c.Position = i + 1
		r.s.chats[id] = c
	}
	return nil
}

// ownedLocked returns the owner's chats in display order. Callers hold mu.
func (s *Store) ownedLocked(ownerID uuid.UUID) []domain.Chat {
	chats := []domain.Chat{}
	for _, c := range s.chats {
		if c.OwnerID == ownerID {
			chats = append(chats, copyChat(c))
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		if chats[i].Position != chats[j].Position {
			return chats[i].Position < chats[j].Position
		}
		return chats[i].ID.String() < chats[j].ID.String()
	})
	return chats
}

// MessageRepository implements domain.MessageRepository
type MessageRepository struct{ s *Store }

// NewMessageRepository creates a message repository over s
func NewMessageRepository(s *Store) *MessageRepository { return &MessageRepository{s: s} }

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := append(r.s.messages[message.ChatID], *message)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	r.s.messages[message.ChatID] = list
	return nil
}

func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := r.s.messages[chatID]
	out := make([]domain.Message, len(list))
	copy(out, list)
	return out, nil
}

func (r *MessageRepository) ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := r.s.messages[chatID]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([]domain.Message, len(list))
	copy(out, list)
	return out, nil
}

func copyChat(c domain.Chat) domain.Chat {
	if c.Brief != nil {
		brief := *c.Brief
		c.Brief = &brief
	}
	return c
}
