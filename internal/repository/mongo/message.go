package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/finance-ai/internal/domain"
)

type messageDocument struct {
	ID        string    `bson:"_id"`
	ChatID    string    `bson:"chat_id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	coll *mongo.Collection
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{coll: db.db.Collection(messagesCollection)}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	doc := messageDocument{
		ID:        message.ID.String(),
		ChatID:    message.ChatID.String(),
		Role:      string(message.Role),
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByChat retrieves every message of a chat, oldest first
func (r *MessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, chatID, opts, false)
}

// ListRecent retrieves the latest limit messages of a chat, oldest first
func (r *MessageRepository) ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]domain.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, chatID, opts, true)
}

func (r *MessageRepository) find(ctx context.Context, chatID uuid.UUID, opts *options.FindOptions, reverse bool) ([]domain.Message, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"chat_id": chatID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid message id %q: %w", doc.ID, err)
		}
		messages = append(messages, domain.Message{
			ID:        id,
			ChatID:    chatID,
			Role:      domain.MessageRole(doc.Role),
			Content:   doc.Content,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}

	if reverse {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}
	return messages, nil
}
