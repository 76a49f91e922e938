package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/domain"
)

func newChat(owner uuid.UUID, title string, position int) *domain.Chat {
	now := time.Now().UTC()
	return &domain.Chat{
		ID:        uuid.Must(uuid.NewV7()),
		OwnerID:   owner,
		Title:     title,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestChatRepository_OrderAndIsolation(t *testing.T) {
	store := NewStore()
	repo := NewChatRepository(store)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	a := newChat(owner, "A", 2)
	b := newChat(owner, "B", 2) // tie with A; ID breaks it
	c := newChat(owner, "C", 1)
	for _, chat := range []*domain.Chat{a, b, c, newChat(other, "X", 1)} {
		require.NoError(t, repo.Create(ctx, chat))
	}

	chats, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, "C", chats[0].Title)
	assert.Equal(t, "A", chats[1].Title)
	assert.Equal(t, "B", chats[2].Title)

	require.NoError(t, repo.SetPositions(ctx, owner, []uuid.UUID{b.ID, a.ID, c.ID}))
	chats, err = repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID, c.ID}, []uuid.UUID{chats[0].ID, chats[1].ID, chats[2].ID})

	require.NoError(t, repo.SwapPositions(ctx, chats[0], chats[1]))
	chats, err = repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, a.ID, chats[0].ID)
	assert.Equal(t, 1, chats[0].Position)
}

func TestChatRepository_GetReturnsCopy(t *testing.T) {
	store := NewStore()
	repo := NewChatRepository(store)
	ctx := context.Background()

	chat := newChat(uuid.New(), "A", 1)
	require.NoError(t, repo.Create(ctx, chat))
	require.NoError(t, repo.UpdateBrief(ctx, chat.ID, "- one", time.Now()))

	got, err := repo.Get(ctx, chat.ID)
	require.NoError(t, err)
	*got.Brief = "mutated"
	got.Title = "mutated"

	again, err := repo.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Title)
	assert.Equal(t, "- one", *again.Brief)

	missing, err := repo.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMessageRepository_Ordering(t *testing.T) {
	repo := NewMessageRepository(NewStore())
	ctx := context.Background()
	chatID := uuid.New()
	base := time.Now().UTC()

	// Inserted out of order
	for _, offset := range []int{2, 0, 1} {
		require.NoError(t, repo.Create(ctx, &domain.Message{
			ID:        uuid.Must(uuid.NewV7()),
			ChatID:    chatID,
			Role:      domain.RoleUser,
			Content:   string(rune('a' + offset)),
			CreatedAt: base.Add(time.Duration(offset) * time.Second),
		}))
	}

	all, err := repo.ListByChat(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Content)
	assert.Equal(t, "c", all[2].Content)

	recent, err := repo.ListRecent(ctx, chatID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Content)

	none, err := repo.ListByChat(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserRepository_EmailUnique(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	u := &domain.User{ID: uuid.New(), Email: "ana@example.com"}
	require.NoError(t, repo.Create(ctx, u))

	err := repo.Create(ctx, &domain.User{ID: uuid.New(), Email: "ANA@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestChatListCache(t *testing.T) {
	cache := NewChatListCache(time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	_, found, err := cache.Get(ctx, owner)
	require.NoError(t, err)
	assert.False(t, found)

	gen, err := cache.Generation(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, owner, []domain.Chat{*newChat(owner, "A", 1)}, gen))
	chats, found, err := cache.Get(ctx, owner)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "A", chats[0].Title)

	chats[0].Title = "mutated"
	chats, _, _ = cache.Get(ctx, owner)
	assert.Equal(t, "A", chats[0].Title)

	require.NoError(t, cache.Invalidate(ctx, owner))
	_, found, _ = cache.Get(ctx, owner)
	assert.False(t, found)

	gen, _ = cache.Generation(ctx, owner)
	require.NoError(t, cache.Set(ctx, owner, []domain.Chat{}, gen))
	n, err := cache.FlushAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestChatListCache_SetAfterInvalidateIsDropped(t *testing.T) {
	cache := NewChatListCache(time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	stale, err := cache.Generation(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, owner))

	require.NoError(t, cache.Set(ctx, owner, []domain.Chat{*newChat(owner, "old order", 1)}, stale))
	_, found, _ := cache.Get(ctx, owner)
	assert.False(t, found)

	fresh, _ := cache.Generation(ctx, owner)
	assert.Equal(t, stale+1, fresh)
	require.NoError(t, cache.Set(ctx, owner, []domain.Chat{*newChat(owner, "new order", 1)}, fresh))
	chats, found, _ := cache.Get(ctx, owner)
	require.True(t, found)
	assert.Equal(t, "new order", chats[0].Title)
}
