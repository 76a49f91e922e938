package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/api"
	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/events"
	"github.com/Rrens/finance-ai/internal/llm"
	"github.com/Rrens/finance-ai/internal/llm/anthropic"
	"github.com/Rrens/finance-ai/internal/llm/deepseek"
	"github.com/Rrens/finance-ai/internal/llm/gemini"
	"github.com/Rrens/finance-ai/internal/llm/ollama"
	"github.com/Rrens/finance-ai/internal/llm/openai"
	"github.com/Rrens/finance-ai/internal/llm/openrouter"
	"github.com/Rrens/finance-ai/internal/logger"
	"github.com/Rrens/finance-ai/internal/repository"
	"github.com/Rrens/finance-ai/internal/repository/memory"
	"github.com/Rrens/finance-ai/internal/repository/redis"
	"github.com/Rrens/finance-ai/internal/security"
	"github.com/Rrens/finance-ai/internal/service"
	"github.com/Rrens/finance-ai/internal/tracer"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logFile, err := logger.Init(cfg.Logging, cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	defer logFile.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting FinanceAI API server")

	ctx := context.Background()

	shutdownTracer, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer shutdownTracer(context.Background())

	repos, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer repos.Close()

	// Redis backs the chat-list cache and rate limiting when enabled;
	// otherwise an in-process cache is used and limiting is off.
	var (
		cache       service.ChatListCache = memory.NewChatListCache(cfg.Redis.CacheTTL)
		redisClient *redis.Client
		rateLimiter *redis.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		cache = redis.NewChatListCache(redisClient, cfg.Redis.CacheTTL)
		rateLimiter = redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
	}

	var mirrors []events.Mirror
	if cfg.Events.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer natsPublisher.Close()
		mirrors = append(mirrors, natsPublisher)
	}
	bus := events.NewBus(cfg.Events, mirrors...)
	defer bus.Close()

	llmRouter := newLLMRouter(cfg.LLM)
	gateway := llm.NewGateway(llmRouter, cfg.LLM.Timeout)

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	deps := api.Dependencies{
		Store:        repos,
		JWT:          jwtManager,
		Auth:         service.NewAuthService(repos.Users, jwtManager),
		Chats:        service.NewChatService(repos.Chats, cache, bus),
		Conversation: service.NewConversationService(repos.Chats, repos.Messages, gateway, cache, bus, cfg.LLM.HistoryLimit),
		LLM:          llmRouter,
		Cache:        cache,
		Events:       bus,
	}
	if redisClient != nil {
		deps.Redis = redisClient
		deps.RateLimiter = rateLimiter
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newLLMRouter registers the default OpenRouter provider plus every other
// provider that has credentials.
func newLLMRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)

	router.RegisterProvider(openrouter.NewProvider(cfg.OpenRouter))

	if cfg.OpenAI.APIKey != "" {
		router.RegisterProvider(openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}
	if cfg.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.RegisterProvider(deepseek.NewProvider(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model))
	}
	if cfg.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	}
	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("Registering Ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}

	switch active := router.DefaultProvider(); active {
	case "":
		log.Warn().Msg("No LLM provider is configured; replies will use the fallback text")
	case cfg.DefaultProvider:
	default:
		log.Warn().
			Str("configured", cfg.DefaultProvider).
			Str("using", active).
			Msg("Default LLM provider has no credentials; using another configured provider")
	}

	return router
}
