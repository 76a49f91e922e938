package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/llm"
)

// FallbackReply is stored as the assistant turn when the gateway fails
const FallbackReply = "Sorry, I couldn't process that. Please try again."

// DefaultHistoryLimit bounds the stored turns sent with a reply request
const DefaultHistoryLimit = 20

// ConversationService handles messages, assistant replies and summaries
type ConversationService struct {
	chats        domain.ChatRepository
	messages     domain.MessageRepository
	gateway      Completer
	cache        ChatListCache
	events       Publisher
	historyLimit int
}

// NewConversationService creates a new conversation service. cache and
// events may be nil.
func NewConversationService(
	chats domain.ChatRepository,
	messages domain.MessageRepository,
	gateway Completer,
	cache ChatListCache,
	events Publisher,
	historyLimit int,
) *ConversationService {
	if cache == nil {
		cache = nopCache{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ConversationService{
		chats:        chats,
		messages:     messages,
		gateway:      gateway,
		cache:        cache,
		events:       events,
		historyLimit: historyLimit,
	}
}

// ListByChat returns a chat's messages oldest first. It returns an empty
// list when the caller is anonymous or does not own the chat.
func (s *ConversationService) ListByChat(ctx context.Context, chatID, callerID uuid.UUID) ([]domain.Message, error) {
	if callerID == uuid.Nil {
		return []domain.Message{}, nil
	}

	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil || chat.OwnerID != callerID {
		return []domain.Message{}, nil
	}

	messages, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// Append stores one message in a chat the caller owns
func (s *ConversationService) Append(ctx context.Context, chatID uuid.UUID, role domain.MessageRole, content string, callerID uuid.UUID) (*domain.Message, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyContent
	}

	if _, err := s.ownedChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}

	return s.store(ctx, chatID, role, content, callerID)
}

// GenerateReply asks the gateway for an assistant turn and stores it. When
// prior is empty the latest stored turns are used as history. A gateway
// failure stores FallbackReply instead and is not returned as an error.
// The reply outlives a cancelled caller; the gateway timeout still bounds it.
func (s *ConversationService) GenerateReply(ctx context.Context, chatID uuid.UUID, prior []domain.ChatTurn, callerID uuid.UUID, opts domain.CompletionOptions) (*domain.Message, error) {
	ctx = context.WithoutCancel(ctx)
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}
	for _, turn := range prior {
		if !turn.Role.Valid() {
			return nil, domain.ErrInvalidRole
		}
	}

	if _, err := s.ownedChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}

	var history []llm.Message
	if len(prior) > 0 {
		history = make([]llm.Message, len(prior))
		for i, turn := range prior {
			history[i] = llm.Message{Role: string(turn.Role), Content: turn.Content}
		}
	} else {
		recent, err := s.messages.ListRecent(ctx, chatID, s.historyLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		history = toPrompt(recent)
	}

	content := FallbackReply
	resp, err := s.gateway.Complete(ctx, opts.Provider, llm.BuildReplyRequest(history, opts.Model))
	if err != nil {
		log.Warn().Err(err).
			Str("chat_id", chatID.String()).
			Str("provider", opts.Provider).
			Msg("Completion failed, storing fallback reply")
	} else {
		content = resp.Content
		log.Debug().
			Str("chat_id", chatID.String()).
			Str("model", resp.Model).
			Int("tokens", resp.TokensUsed).
			Int64("latency_ms", resp.LatencyMs).
			Msg("Reply generated")
	}

	return s.store(ctx, chatID, domain.RoleAssistant, content, callerID)
}

// Summarize replaces the chat brief with a summary of its latest turns.
// On gateway failure the brief is left unchanged.
func (s *ConversationService) Summarize(ctx context.Context, chatID, callerID uuid.UUID) (*domain.Chat, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	chat, err := s.ownedChat(ctx, chatID, callerID)
	if err != nil {
		return nil, err
	}

	recent, err := s.messages.ListRecent(ctx, chatID, llm.SummaryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(recent) == 0 {
		return nil, domain.ErrEmptyChat
	}

	resp, err := s.gateway.Complete(ctx, "", llm.BuildSummaryRequest(toPrompt(recent), ""))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize chat: %w", err)
	}

	brief := strings.TrimSpace(resp.Content)
	ts := now()
	if err := s.chats.UpdateBrief(ctx, chatID, brief, ts); err != nil {
		return nil, fmt.Errorf("failed to save brief: %w", err)
	}
	chat.Brief = &brief
	chat.UpdatedAt = ts

	invalidate(ctx, s.cache, callerID)
	publish(ctx, s.events, domain.Event{Type: domain.EventChatSummarized, OwnerID: callerID, ChatID: chatID, Chat: chat})

	return chat, nil
}

// SendMessage appends a user message and generates the reply from stored
// history.
func (s *ConversationService) SendMessage(ctx context.Context, chatID uuid.UUID, content string, callerID uuid.UUID, opts domain.CompletionOptions) (*domain.Exchange, error) {
	ctx = context.WithoutCancel(ctx)
	userMessage, err := s.Append(ctx, chatID, domain.RoleUser, content, callerID)
	if err != nil {
		return nil, err
	}

	reply, err := s.GenerateReply(ctx, chatID, nil, callerID, opts)
	if err != nil {
		return nil, err
	}

	return &domain.Exchange{UserMessage: *userMessage, Reply: *reply}, nil
}

// ownedChat loads a chat, reporting a missing or foreign chat as forbidden
func (s *ConversationService) ownedChat(ctx context.Context, chatID, callerID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil || chat.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	return chat, nil
}

func (s *ConversationService) store(ctx context.Context, chatID uuid.UUID, role domain.MessageRole, content string, ownerID uuid.UUID) (*domain.Message, error) {
	message := &domain.Message{
		ID:        newID(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.nextTimestamp(ctx, chatID),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	publish(ctx, s.events, domain.Event{Type: domain.EventMessageAppended, OwnerID: ownerID, ChatID: chatID, Message: message})
	return message, nil
}

// nextTimestamp never goes backwards within a chat, so a wall clock step or
// a skewed instance cannot reorder sequential appends.
func (s *ConversationService) nextTimestamp(ctx context.Context, chatID uuid.UUID) time.Time {
	ts := now()
	latest, err := s.messages.ListRecent(ctx, chatID, 1)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("Failed to read latest message time")
		return ts
	}
	if len(latest) == 1 {
		if floor := latest[0].CreatedAt.Add(messageTick); ts.Before(floor) {
			return floor
		}
	}
	return ts
}

func toPrompt(messages []domain.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
