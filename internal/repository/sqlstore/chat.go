package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Rrens/finance-ai/internal/domain"
)

// ChatRepository implements domain.ChatRepository
type ChatRepository struct {
	store *Store
}

// NewChatRepository creates a new chat repository
func NewChatRepository(store *Store) *ChatRepository {
	return &ChatRepository{store: store}
}

const chatColumns = `id, owner_id, title, position, brief, created_at, updated_at`

// Create inserts a new chat
func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	query := `INSERT INTO chats (` + chatColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	var brief sql.NullString
	if chat.Brief != nil {
		brief = sql.NullString{String: *chat.Brief, Valid: true}
	}

	_, err := r.store.DB.ExecContext(ctx, query,
		chat.ID,
		chat.OwnerID,
		chat.Title,
		chat.Position,
		brief,
		toMicros(chat.CreatedAt),
		toMicros(chat.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

// Get retrieves a chat by ID
func (r *ChatRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = ?`

	chat, err := scanChat(r.store.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// ListByOwner retrieves the owner's chats in display order
func (r *ChatRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE owner_id = ? ORDER BY position ASC, id ASC`

	rows, err := r.store.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []domain.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, *chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}
	return chats, nil
}

// UpdateTitle renames a chat
func (r *ChatRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string, updatedAt time.Time) error {
	query := `UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`
	if _, err := r.store.DB.ExecContext(ctx, query, title, toMicros(updatedAt), id); err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}
	return nil
}

// UpdateBrief stores a generated summary
func (r *ChatRepository) UpdateBrief(ctx context.Context, id uuid.UUID, brief string, updatedAt time.Time) error {
	query := `UPDATE chats SET brief = ?, updated_at = ? WHERE id = ?`
	if _, err := r.store.DB.ExecContext(ctx, query, brief, toMicros(updatedAt), id); err != nil {
		return fmt.Errorf("failed to update chat brief: %w", err)
	}
	return nil
}

// SwapPositions exchanges the positions of two chats in one transaction
func (r *ChatRepository) SwapPositions(ctx context.Context, a, b domain.Chat) error {
	return r.store.inTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE chats SET position = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, b.Position, a.ID); err != nil {
			return fmt.Errorf("failed to move chat: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, a.Position, b.ID); err != nil {
			return fmt.Errorf("failed to move chat: %w", err)
		}
		return nil
	})
}

// SetPositions assigns dense positions in one transaction
func (r *ChatRepository) SetPositions(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.store.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE chats SET position = ? WHERE id = ? AND owner_id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare reorder: %w", err)
		}
		defer stmt.Close()

		for i, id := range orderedIDs {
			if _, err := stmt.ExecContext(ctx, i+1, id, ownerID); err != nil {
				return fmt.Errorf("failed to reorder chats: %w", err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*domain.Chat, error) {
	var (
		c                    domain.Chat
		brief                sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Position, &brief, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if brief.Valid {
		c.Brief = &brief.String
	}
	c.CreatedAt = fromMicros(createdAt)
	c.UpdatedAt = fromMicros(updatedAt)
	return &c, nil
}
