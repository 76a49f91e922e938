package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Rrens/finance-ai/internal/domain"
)

// ChatRepository implements domain.ChatRepository
type ChatRepository struct {
	db *DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db}
}

const chatColumns = `id, owner_id, title, position, brief, created_at, updated_at`

// Create inserts a new chat
func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (id, owner_id, title, position, brief, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		chat.ID,
		chat.OwnerID,
		chat.Title,
		chat.Position,
		chat.Brief,
		chat.CreatedAt,
		chat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

// Get retrieves a chat by ID
func (r *ChatRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`

	chat, err := scanChat(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// ListByOwner retrieves the owner's chats in display order
func (r *ChatRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE owner_id = $1 ORDER BY position ASC, id ASC`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
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
	query := `UPDATE chats SET title = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.Pool.Exec(ctx, query, title, updatedAt, id); err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}
	return nil
}

// UpdateBrief stores a generated summary
func (r *ChatRepository) UpdateBrief(ctx context.Context, id uuid.UUID, brief string, updatedAt time.Time) error {
	query := `UPDATE chats SET brief = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.Pool.Exec(ctx, query, brief, updatedAt, id); err != nil {
		return fmt.Errorf("failed to update chat brief: %w", err)
	}
	return nil
}

// SwapPositions exchanges the positions of two chats in one transaction
func (r *ChatRepository) SwapPositions(ctx context.Context, a, b domain.Chat) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		query := `UPDATE chats SET position = $1 WHERE id = $2`
		if _, err := tx.Exec(ctx, query, b.Position, a.ID); err != nil {
			return fmt.Errorf("failed to move chat: %w", err)
		}
		if _, err := tx.Exec(ctx, query, a.Position, b.ID); err != nil {
			return fmt.Errorf("failed to move chat: %w", err)
		}
		return nil
	})
}

// SetPositions assigns dense positions in one transaction
func (r *ChatRepository) SetPositions(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, id := range orderedIDs {
			batch.Queue(`UPDATE chats SET position = $1 WHERE id = $2 AND owner_id = $3`, i+1, id, ownerID)
		}

		results := tx.SendBatch(ctx, batch)
		for range orderedIDs {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to reorder chats: %w", err)
			}
		}
		return results.Close()
	})
}

func scanChat(row pgx.Row) (*domain.Chat, error) {
	var c domain.Chat
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Title,
		&c.Position,
		&c.Brief,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
