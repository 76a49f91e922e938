package handler

import (
	"net/http"

	"github.com/Rrens/finance-ai/internal/api/middleware"
	"github.com/Rrens/finance-ai/internal/api/response"
	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/service"
)

// ChatHandler handles chat list endpoints
type ChatHandler struct {
	chats        *service.ChatService
	conversation *service.ConversationService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chats *service.ChatService, conversation *service.ConversationService) *ChatHandler {
	return &ChatHandler{chats: chats, conversation: conversation}
}

// List returns the caller's chats. Anonymous callers get an empty list.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.List(r.Context(), middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, chats)
}

// Create handles chat creation. The body is optional.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.ChatCreate
	if !decode(w, r, &input, true) {
		return
	}

	chat, err := h.chats.Create(r.Context(), middleware.CallerID(r.Context()), input.Title)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, chat)
}

// Rename handles a title change
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var input domain.ChatRename
	if !decode(w, r, &input, false) {
		return
	}

	chat, err := h.chats.Rename(r.Context(), chatID, input.Title, middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, chat)
}

// Move handles a single-step move up or down
func (h *ChatHandler) Move(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var input domain.ChatMove
	if !decode(w, r, &input, false) {
		return
	}

	if err := h.chats.Move(r.Context(), chatID, input.Direction, middleware.CallerID(r.Context())); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// Reorder applies a full ordering
func (h *ChatHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var input domain.ChatReorder
	if !decode(w, r, &input, false) {
		return
	}

	chats, err := h.chats.Reorder(r.Context(), input.OrderedIDs, middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, chats)
}

// MoveTo drops the chat in the path onto the target chat's slot
func (h *ChatHandler) MoveTo(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	var input domain.ChatMoveTo
	if !decode(w, r, &input, false) {
		return
	}

	chats, err := h.chats.MoveTo(r.Context(), chatID, input.TargetID, middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, chats)
}

// Summarize regenerates the chat brief
func (h *ChatHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	chat, err := h.conversation.Summarize(r.Context(), chatID, middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, chat)
}
