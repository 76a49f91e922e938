package handler

import (
	"net/http"

	"github.com/Rrens/finance-ai/internal/api/middleware"
	"github.com/Rrens/finance-ai/internal/api/response"
	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if !decode(w, r, &input, false) {
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, user)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if !decode(w, r, &input, false) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input domain.RefreshRequest
	if !decode(w, r, &input, false) {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, tokens)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserByID(r.Context(), middleware.CallerID(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, user)
}
