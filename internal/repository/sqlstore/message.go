package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rrens/finance-ai/internal/domain"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	store *Store
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(store *Store) *MessageRepository {
	return &MessageRepository{store: store}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `INSERT INTO messages (id, chat_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.store.DB.ExecContext(ctx, query,
		message.ID,
		message.ChatID,
		string(message.Role),
		message.Content,
		toMicros(message.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByChat retrieves every message of a chat, oldest first
func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT id, chat_id, role, content, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.store.DB.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return collectMessages(rows)
}

// ListRecent retrieves the latest limit messages of a chat, oldest first
func (r *MessageRepository) ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, chat_id, role, content, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.store.DB.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func collectMessages(rows *sql.Rows) ([]domain.Message, error) {
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			m         domain.Message
			role      string
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = domain.MessageRole(role)
		m.CreatedAt = fromMicros(createdAt)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
