package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/llm"
	"github.com/Rrens/finance-ai/internal/repository/memory"
	"github.com/Rrens/finance-ai/internal/repository/sqlstore"
)

type conversationFixture struct {
	svc      *ConversationService
	chats    *memory.ChatRepository
	messages *memory.MessageRepository
	gateway  *MockCompleter
	events   *MockPublisher
	owner    uuid.UUID
	chat     *domain.Chat
}

func newConversationFixture(t *testing.T, historyLimit int) *conversationFixture {
	t.Helper()
	store := memory.NewStore()
	f := &conversationFixture{
		chats:    memory.NewChatRepository(store),
		messages: memory.NewMessageRepository(store),
		gateway:  new(MockCompleter),
		events:   quietPublisher(),
		owner:    uuid.New(),
	}
	f.svc = NewConversationService(f.chats, f.messages, f.gateway, memory.NewChatListCache(time.Minute), f.events, historyLimit)

	f.chat = &domain.Chat{ID: uuid.New(), OwnerID: f.owner, Title: "Savings", Position: 1}
	require.NoError(t, f.chats.Create(context.Background(), f.chat))
	return f
}

func lastTurn(req llm.Request) llm.Message {
	return req.Messages[len(req.Messages)-1]
}

func TestConversationService_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newConversationFixture(t, 0)

		msg, err := f.svc.Append(ctx, f.chat.ID, domain.RoleUser, "How do I start an emergency fund?", f.owner)
		require.NoError(t, err)
		assert.Equal(t, f.chat.ID, msg.ChatID)
		assert.Equal(t, domain.RoleUser, msg.Role)

		messages, err := f.svc.ListByChat(ctx, f.chat.ID, f.owner)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, msg.ID, messages[0].ID)
		f.events.AssertCalled(t, "Publish", mock.Anything, eventOfType(domain.EventMessageAppended))
	})

	t.Run("validation", func(t *testing.T) {
		f := newConversationFixture(t, 0)

		_, err := f.svc.Append(ctx, f.chat.ID, "system", "hi", f.owner)
		assert.ErrorIs(t, err, domain.ErrInvalidRole)

		_, err = f.svc.Append(ctx, f.chat.ID, domain.RoleUser, " \n ", f.owner)
		assert.ErrorIs(t, err, domain.ErrEmptyContent)

		_, err = f.svc.Append(ctx, f.chat.ID, domain.RoleUser, "hi", uuid.Nil)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("foreign chat", func(t *testing.T) {
		f := newConversationFixture(t, 0)

		_, err := f.svc.Append(ctx, f.chat.ID, domain.RoleUser, "hi", uuid.New())
		assert.ErrorIs(t, err, domain.ErrForbidden)

		messages, err := f.messages.ListByChat(ctx, f.chat.ID)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}

func TestConversationService_AppendOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reads back in append order", func(t *testing.T) {
		f := newConversationFixture(t, 0)
		want := make([]string, 12)
		for i := range want {
			role := domain.RoleUser
			if i%2 == 1 {
				role = domain.RoleAssistant
			}
			want[i] = fmt.Sprintf("message %d", i)
			_, err := f.svc.Append(ctx, f.chat.ID, role, want[i], f.owner)
			require.NoError(t, err)
		}

		messages, err := f.svc.ListByChat(ctx, f.chat.ID, f.owner)
		require.NoError(t, err)
		got := make([]string, len(messages))
		for i, m := range messages {
			got[i] = m.Content
		}
		assert.Equal(t, want, got)
	})

	t.Run("wall clock stepping back", func(t *testing.T) {
		f := newConversationFixture(t, 0)
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := []time.Time{base, base.Add(-time.Hour), base.Add(-2 * time.Hour)}
		restore := now
		t.Cleanup(func() { now = restore })
		calls := 0
		now = func() time.Time {
			ts := clock[min(calls, len(clock)-1)]
			calls++
			return ts
		}

		for _, content := range []string{"first", "second", "third"} {
			_, err := f.svc.Append(ctx, f.chat.ID, domain.RoleUser, content, f.owner)
			require.NoError(t, err)
		}

		messages, err := f.svc.ListByChat(ctx, f.chat.ID, f.owner)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "first", messages[0].Content)
		assert.Equal(t, "second", messages[1].Content)
		assert.Equal(t, "third", messages[2].Content)
		assert.True(t, messages[1].CreatedAt.After(messages[0].CreatedAt))
		assert.True(t, messages[2].CreatedAt.After(messages[1].CreatedAt))
	})
}

func TestConversationService_ReplyToFirstQuestion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	chats := memory.NewChatRepository(store)
	messages := memory.NewMessageRepository(store)
	gateway := new(MockCompleter)
	owner := uuid.New()

	title := "Budget Plan"
	chat, err := NewChatService(chats, nil, nil).Create(ctx, owner, &title)
	require.NoError(t, err)
	assert.Equal(t, 1, chat.Position)

	svc := NewConversationService(chats, messages, gateway, nil, nil, DefaultHistoryLimit)
	question, err := svc.Append(ctx, chat.ID, domain.RoleUser, "What is ROE?", owner)
	require.NoError(t, err)

	gateway.On("Complete", mock.Anything, "", mock.MatchedBy(func(req llm.Request) bool {
		return lastTurn(req).Content == "What is ROE?"
	})).Return(&llm.Response{Content: "ROE = Net Income / Equity"}, nil)

	_, err = svc.GenerateReply(ctx, chat.ID, []domain.ChatTurn{{Role: question.Role, Content: question.Content}}, owner, domain.CompletionOptions{})
	require.NoError(t, err)

	stored, err := svc.ListByChat(ctx, chat.ID, owner)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, domain.RoleUser, stored[0].Role)
	assert.Equal(t, "What is ROE?", stored[0].Content)
	assert.Equal(t, domain.RoleAssistant, stored[1].Role)
	assert.Equal(t, "ROE = Net Income / Equity", stored[1].Content)
}

func TestConversationService_ReplySurvivesCancelledCaller(t *testing.T) {
	store, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.EnsureSchema(context.Background()))

	ts := time.Now().UTC()
	owner := &domain.User{ID: uuid.Must(uuid.NewV7()), Email: "u@example.com", PasswordHash: "hash", CreatedAt: ts, UpdatedAt: ts}
	require.NoError(t, sqlstore.NewUserRepository(store).Create(context.Background(), owner))

	chats := sqlstore.NewChatRepository(store)
	messages := sqlstore.NewMessageRepository(store)
	chat := &domain.Chat{ID: uuid.Must(uuid.NewV7()), OwnerID: owner.ID, Title: "Savings", Position: 1, CreatedAt: ts, UpdatedAt: ts}
	require.NoError(t, chats.Create(context.Background(), chat))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := new(MockCompleter)
	gateway.On("Complete", mock.Anything, "", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	svc := NewConversationService(chats, messages, gateway, nil, nil, DefaultHistoryLimit)
	reply, err := svc.GenerateReply(ctx, chat.ID, []domain.ChatTurn{{Role: domain.RoleUser, Content: "hi"}}, owner.ID, domain.CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply.Content)

	stored, err := messages.ListByChat(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.RoleAssistant, stored[0].Role)
	assert.Equal(t, FallbackReply, stored[0].Content)
}

func TestConversationService_ListByChat_NotVisible(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t, 0)
	_, err := f.svc.Append(ctx, f.chat.ID, domain.RoleUser, "hi", f.owner)
	require.NoError(t, err)

	for name, caller := range map[string]uuid.UUID{"anonymous": uuid.Nil, "stranger": uuid.New()} {
		t.Run(name, func(t *testing.T) {
			messages, err := f.svc.ListByChat(ctx, f.chat.ID, caller)
			require.NoError(t, err)
			assert.Empty(t, messages)
		})
	}
}

func TestConversationService_GenerateReply(t *testing.T) {
	ctx := context.Background()

	t.Run("uses supplied turns", func(t *testing.T) {
		f := newConversationFixture(t, 0)
		prior := []domain.ChatTurn{
			{Role: domain.RoleUser, Content: "Is a Roth IRA worth it?"},
		}

		f.gateway.On("Complete", mock.Anything, "openai", mock.MatchedBy(func(req llm.Request) bool {
			return len(req.Messages) == 2 &&
				req.Messages[0].Role == llm.RoleSystem &&
				lastTurn(req).Content == "Is a Roth IRA worth it?" &&
				req.Model == "gpt-4o"
		})).Return(&llm.Response{Content: "Often, yes.", Model: "gpt-4o"}, nil)

		reply, err := f.svc.GenerateReply(ctx, f.chat.ID, prior, f.owner, domain.CompletionOptions{Provider: "openai", Model: "gpt-4o"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAssistant, reply.Role)
		assert.Equal(t, "Often, yes.", reply.Content)
		f.gateway.AssertExpectations(t)
	})

	t.Run("falls back to stored history", func(t *testing.T) {
		f := newConversationFixture(t, 2)
		for i := 0; i < 3; i++ {
			_, err := f.svc.Append(ctx, f.chat.ID, domain.RoleUser, fmt.Sprintf("turn %d", i), f.owner)
			require.NoError(t, err)
		}

		f.gateway.On("Complete", mock.Anything, "", mock.MatchedBy(func(req llm.Request) bool {
			return len(req.Messages) == 3 &&
				req.Messages[1].Content == "turn 1" &&
				lastTurn(req).Content == "turn 2"
		})).Return(&llm.Response{Content: "noted"}, nil)

		_, err := f.svc.GenerateReply(ctx, f.chat.ID, nil, f.owner, domain.CompletionOptions{})
		require.NoError(t, err)
		f.gateway.AssertExpectations(t)
	})

	t.Run("gateway failure stores fallback", func(t *testing.T) {
		f := newConversationFixture(t, 0)
		f.gateway.On("Complete", mock.Anything, "", mock.Anything).
			Return(nil, fmt.Errorf("%w: boom", domain.ErrGatewayUnavailable))

		reply, err := f.svc.GenerateReply(ctx, f.chat.ID, []domain.ChatTurn{{Role: domain.RoleUser, Content: "hi"}}, f.owner, domain.CompletionOptions{})
		require.NoError(t, err)
		assert.Equal(t, FallbackReply, reply.Content)

		messages, err := f.messages.ListByChat(ctx, f.chat.ID)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, FallbackReply, messages[0].Content)
	})

	t.Run("ownership is checked before the gateway", func(t *testing.T) {
		f := newConversationFixture(t, 0)

		_, err := f.svc.GenerateReply(ctx, f.chat.ID, nil, uuid.New(), domain.CompletionOptions{})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = f.svc.GenerateReply(ctx, f.chat.ID, []domain.ChatTurn{{Role: "system", Content: "x"}}, f.owner, domain.CompletionOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidRole)

		f.gateway.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConversationService_Summarize(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newConversationFixture(t, 0)
		_, err := f.svc.Append(ctx, f.chat.ID, domain.RoleUser, "I want to pay off my car loan early.", f.owner)
		require.NoError(t, err)

		f.gateway.On("Complete", mock.Anything, "", mock.MatchedBy(func(req llm.Request) bool {
			return req.Messages[0].Content == llm.SummaryPrompt &&
				lastTurn(req).Content == "USER: I want to pay off my car loan early."
		})).Return(&llm.Response{Content: "  - Goal: pay off car loan\n"}, nil)

		chat, err := f.svc.Summarize(ctx, f.chat.ID, f.owner)
		require.NoError(t, err)
		require.NotNil(t, chat.Brief)
		assert.Equal(t, "- Goal: pay off car loan", *chat.Brief)

		stored, err := f.chats.Get(ctx, f.chat.ID)
		require.NoError(t, err)
		assert.Equal(t, chat.Brief, stored.Brief)
		f.events.AssertCalled(t, "Publish", mock.Anything, eventOfType(domain.EventChatSummarized))
	})

	t.Run("gateway failure keeps brief", func(t *testing.T) {
		f := newConversationFixture(t, 0)
		_, err := f.svc.Append(ctx, f.chat.ID, domain.RoleUser, "hello", f.owner)
		require.NoError(t, err)

		f.gateway.On("Complete", mock.Anything, "", mock.Anything).
			Return(nil, fmt.Errorf("%w: deadline", domain.ErrGatewayTimeout))

		_, err = f.svc.Summarize(ctx, f.chat.ID, f.owner)
		assert.ErrorIs(t, err, domain.ErrGatewayTimeout)

		stored, err := f.chats.Get(ctx, f.chat.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Brief)
	})

	t.Run("empty chat", func(t *testing.T) {
		f := newConversationFixture(t, 0)

		_, err := f.svc.Summarize(ctx, f.chat.ID, f.owner)
		assert.ErrorIs(t, err, domain.ErrEmptyChat)
		f.gateway.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("foreign chat", func(t *testing.T) {
		f := newConversationFixture(t, 0)

		_, err := f.svc.Summarize(ctx, f.chat.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestConversationService_SendMessage(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t, 0)

	f.gateway.On("Complete", mock.Anything, "", mock.MatchedBy(func(req llm.Request) bool {
		return lastTurn(req).Content == "Should I refinance?"
	})).Return(&llm.Response{Content: "Compare the rates first."}, nil)

	exchange, err := f.svc.SendMessage(ctx, f.chat.ID, "Should I refinance?", f.owner, domain.CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, exchange.UserMessage.Role)
	assert.Equal(t, "Compare the rates first.", exchange.Reply.Content)

	messages, err := f.svc.ListByChat(ctx, f.chat.ID, f.owner)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, exchange.UserMessage.ID, messages[0].ID)
	assert.Equal(t, exchange.Reply.ID, messages[1].ID)

	_, err = f.svc.SendMessage(ctx, f.chat.ID, "", f.owner, domain.CompletionOptions{})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}
