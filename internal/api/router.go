package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/finance-ai/internal/api/handler"
	customMiddleware "github.com/Rrens/finance-ai/internal/api/middleware"
	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/llm"
	"github.com/Rrens/finance-ai/internal/security"
	"github.com/Rrens/finance-ai/internal/service"
)

// Dependencies are the collaborators the HTTP surface is built from.
// Redis and RateLimiter may be nil.
type Dependencies struct {
	Store        handler.Pinger
	Redis        handler.Pinger
	JWT          *security.JWTManager
	Auth         *service.AuthService
	Chats        *service.ChatService
	Conversation *service.ConversationService
	LLM          *llm.Router
	Cache        handler.Flusher
	Events       handler.Subscriber
	RateLimiter  customMiddleware.RateLimiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	chatHandler := handler.NewChatHandler(deps.Chats, deps.Conversation)
	messageHandler := handler.NewMessageHandler(deps.Conversation)
	streamHandler := handler.NewStreamHandler(deps.Events, cfg.Server.AllowedOrigins)

	authMiddleware := customMiddleware.NewAuthMiddleware(deps.JWT)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(deps.RateLimiter)

	readiness := map[string]handler.Pinger{"storage": deps.Store}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Long-lived; kept outside the request timeout
		r.With(authMiddleware.Authenticate).Get("/stream", streamHandler.Serve)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

			r.Get("/health", handler.HealthCheck)
			r.Get("/ready", handler.ReadyCheck(readiness))

			r.Route("/auth", func(r chi.Router) {
				r.Use(rateLimitMiddleware.Limit)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})

			// Reads degrade to empty results for anonymous callers
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.OptionalAuthenticate)
				r.Use(rateLimitMiddleware.Limit)

				r.Get("/chats", chatHandler.List)
				r.Get("/chats/{chatID}/messages", messageHandler.List)
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Use(rateLimitMiddleware.Limit)

				r.Get("/me", authHandler.Me)
				r.Get("/llm-providers", handler.ListLLMProviders(deps.LLM))
				r.Post("/cache/flush", handler.FlushCache(deps.Cache))

				r.Post("/chats", chatHandler.Create)
				r.Put("/chats/order", chatHandler.Reorder)
				r.Patch("/chats/{chatID}", chatHandler.Rename)
				r.Post("/chats/{chatID}/move", chatHandler.Move)
				r.Post("/chats/{chatID}/move-to", chatHandler.MoveTo)
				r.Post("/chats/{chatID}/summarize", chatHandler.Summarize)

				r.Post("/chats/{chatID}/messages", messageHandler.Append)
				r.Post("/chats/{chatID}/reply", messageHandler.Reply)
				r.Post("/chats/{chatID}/send", messageHandler.Send)
			})
		})
	})

	return r
}
