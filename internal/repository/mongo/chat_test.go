package mongo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatDocument_ToDomain(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	owner := uuid.New()
	brief := "- goal: retire early"
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("WIB", 7*3600))

	chat, err := chatDocument{
		ID:        id.String(),
		OwnerID:   owner.String(),
		Title:     "Retirement",
		Position:  3,
		Brief:     &brief,
		CreatedAt: created,
		UpdatedAt: created,
	}.toDomain()
	require.NoError(t, err)

	assert.Equal(t, id, chat.ID)
	assert.Equal(t, owner, chat.OwnerID)
	assert.Equal(t, 3, chat.Position)
	assert.Equal(t, &brief, chat.Brief)
	assert.Equal(t, time.UTC, chat.CreatedAt.Location())
	assert.True(t, created.Equal(chat.CreatedAt))
}

func TestChatDocument_ToDomainRejectsBadID(t *testing.T) {
	_, err := chatDocument{ID: "nope", OwnerID: uuid.NewString()}.toDomain()
	assert.Error(t, err)
}
