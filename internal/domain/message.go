package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is a role that can be stored
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn in a chat. Messages are never edited or deleted.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	ChatID    uuid.UUID   `json:"chat_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// MessageCreate represents an append request
type MessageCreate struct {
	Role    MessageRole `json:"role" validate:"required,oneof=user assistant"`
	Content string      `json:"content" validate:"required"`
}

// ChatTurn is a role-tagged message sent to the completion gateway
type ChatTurn struct {
	Role    MessageRole `json:"role" validate:"required,oneof=user assistant"`
	Content string      `json:"content" validate:"required"`
}

// CompletionOptions overrides the gateway provider or model for one call
type CompletionOptions struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ReplyRequest asks for an assistant reply to the given turns
type ReplyRequest struct {
	Messages []ChatTurn `json:"messages,omitempty" validate:"omitempty,dive"`
	CompletionOptions
}

// SendRequest appends a user message and asks for a reply
type SendRequest struct {
	Content string `json:"content" validate:"required"`
	CompletionOptions
}

// Exchange is the pair of messages produced by one send
type Exchange struct {
	UserMessage Message `json:"user_message"`
	Reply       Message `json:"reply"`
}

// MessageRepository defines the interface for message storage.
// Listings are ordered by creation time, then ID.
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]Message, error)
	// ListRecent returns the latest limit messages, oldest first
	ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]Message, error)
}
