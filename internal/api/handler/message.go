package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rrens/finance-ai/internal/api/middleware"
	"github.com/Rrens/finance-ai/internal/api/response"
	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/service"
)

// MessageHandler handles message endpoints of a chat
type MessageHandler struct {
	conversation *service.ConversationService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(conversation *service.ConversationService) *MessageHandler {
	return &MessageHandler{conversation: conversation}
}

// List returns the chat's messages, or an empty list when the caller
// cannot see the chat or the ID does not parse.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		response.OK(w, []domain.Message{})
		return
	}

	messages, err := h.conversation.ListByChat(r.Context(), chatID, middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, messages)
}

// Append stores one message
func (h *MessageHandler) Append(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var input domain.MessageCreate
	if !decode(w, r, &input, false) {
		return
	}

	message, err := h.conversation.Append(r.Context(), chatID, input.Role, input.Content, middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, message)
}

// Reply generates and stores an assistant message
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var input domain.ReplyRequest
	if !decode(w, r, &input, true) {
		return
	}

	message, err := h.conversation.GenerateReply(r.Context(), chatID, input.Messages, middleware.CallerID(r.Context()), input.CompletionOptions)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, message)
}

// Send appends the user's message and replies to it
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var input domain.SendRequest
	if !decode(w, r, &input, false) {
		return
	}

	exchange, err := h.conversation.SendMessage(r.Context(), chatID, input.Content, middleware.CallerID(r.Context()), input.CompletionOptions)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, exchange)
}
