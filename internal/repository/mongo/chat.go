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

type chatDocument struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	Title     string    `bson:"title"`
	Position  int       `bson:"position"`
	Brief     *string   `bson:"brief,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d chatDocument) toDomain() (domain.Chat, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("invalid chat id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("invalid owner id %q: %w", d.OwnerID, err)
	}
	return domain.Chat{
		ID:        id,
		OwnerID:   owner,
		Title:     d.Title,
		Position:  d.Position,
		Brief:     d.Brief,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

// ChatRepository implements domain.ChatRepository
type ChatRepository struct {
	coll *mongo.Collection
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{coll: db.db.Collection(chatsCollection)}
}

// Create inserts a new chat
func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	doc := chatDocument{
		ID:        chat.ID.String(),
		OwnerID:   chat.OwnerID.String(),
		Title:     chat.Title,
		Position:  chat.Position,
		Brief:     chat.Brief,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

// Get retrieves a chat by ID
func (r *ChatRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	var doc chatDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	chat, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListByOwner retrieves the owner's chats in display order
func (r *ChatRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []chatDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}

	chats := make([]domain.Chat, 0, len(docs))
	for _, doc := range docs {
		chat, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// UpdateTitle renames a chat
func (r *ChatRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string, updatedAt time.Time) error {
	update := bson.M{"$set": bson.M{"title": title, "updated_at": updatedAt}}
	if _, err := r.coll.UpdateByID(ctx, id.String(), update); err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}
	return nil
}

// UpdateBrief stores a generated summary
func (r *ChatRepository) UpdateBrief(ctx context.Context, id uuid.UUID, brief string, updatedAt time.Time) error {
	update := bson.M{"$set": bson.M{"brief": brief, "updated_at": updatedAt}}
	if _, err := r.coll.UpdateByID(ctx, id.String(), update); err != nil {
		return fmt.Errorf("failed to update chat brief: %w", err)
	}
	return nil
}

// SwapPositions exchanges two positions with two single-document writes.
// Standalone servers have no multi-document transactions, so a concurrent
// reader can briefly observe both chats at the same position.
func (r *ChatRepository) SwapPositions(ctx context.Context, a, b domain.Chat) error {
	if _, err := r.coll.UpdateByID(ctx, a.ID.String(), bson.M{"$set": bson.M{"position": b.Position}}); err != nil {
		return fmt.Errorf("failed to move chat: %w", err)
	}
	if _, err := r.coll.UpdateByID(ctx, b.ID.String(), bson.M{"$set": bson.M{"position": a.Position}}); err != nil {
		return fmt.Errorf("failed to move chat: %w", err)
	}
	return nil
}

// SetPositions assigns dense positions with one unordered bulk write
func (r *ChatRepository) SetPositions(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id.String(), "owner_id": ownerID.String()}).
			SetUpdate(bson.M{"$set": bson.M{"position": i + 1}}))
	}

	if _, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to reorder chats: %w", err)
	}
	return nil
}
