package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultChatTitle is used when a chat is created without a title
	DefaultChatTitle = "New Chat"
	// MaxTitleLength bounds chat titles after trimming
	MaxTitleLength = 200
)

// Direction is the way a chat moves in its owner's list
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Chat represents a conversation thread owned by one user.
// Position ranks the chat within its owner's list; values need not be
// contiguous and ties are broken by ID.
type Chat struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Brief     *string   `json:"brief,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatCreate represents chat creation data
type ChatCreate struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=200"`
}

// ChatRename represents a title change
type ChatRename struct {
	Title string `json:"title" validate:"required,max=200"`
}

// ChatMove represents a single-step move request
type ChatMove struct {
	Direction Direction `json:"direction" validate:"required,oneof=up down"`
}

// ChatReorder carries the caller's desired order
type ChatReorder struct {
	OrderedIDs []uuid.UUID `json:"ordered_ids" validate:"required"`
}

// ChatMoveTo represents a drag-and-drop of one chat onto another
type ChatMoveTo struct {
	TargetID uuid.UUID `json:"target_id" validate:"required"`
}

// ChatRepository defines the interface for chat storage.
// Get returns nil, nil when the chat does not exist.
type ChatRepository interface {
	Create(ctx context.Context, chat *Chat) error
	Get(ctx context.Context, id uuid.UUID) (*Chat, error)
	// ListByOwner returns the owner's chats ordered by position, then ID
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Chat, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string, updatedAt time.Time) error
	UpdateBrief(ctx context.Context, id uuid.UUID, brief string, updatedAt time.Time) error
	// SwapPositions gives a the position of b and b the position of a
	SwapPositions(ctx context.Context, a, b Chat) error
	// SetPositions assigns positions 1..n to orderedIDs, all owned by ownerID
	SetPositions(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error
}
