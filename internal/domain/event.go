package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a change to an owner's chats
type EventType string

const (
	EventChatCreated     EventType = "chat.created"
	EventChatRenamed     EventType = "chat.renamed"
	EventChatsReordered  EventType = "chats.reordered"
	EventChatSummarized  EventType = "chat.summarized"
	EventMessageAppended EventType = "message.appended"
)

// Event is published after a successful mutation so that other sessions
// of the same owner can refresh.
type Event struct {
	Type       EventType `json:"type"`
	OwnerID    uuid.UUID `json:"owner_id"`
	ChatID     uuid.UUID `json:"chat_id"`
	Chat       *Chat     `json:"chat,omitempty"`
	Chats      []Chat    `json:"chats,omitempty"`
	Message    *Message  `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
