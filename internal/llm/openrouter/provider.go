// Package openrouter is the default chat-completion backend.
package openrouter

import (
	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/llm/openai"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "deepseek/deepseek-chat"
)

// NewProvider creates an OpenRouter provider. OpenRouter asks callers to
// identify themselves through the HTTP-Referer and X-Title headers.
func NewProvider(cfg config.OpenRouterConfig) *openai.Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return openai.New(openai.Options{
		Name:         "openrouter",
		APIKey:       cfg.APIKey,
		BaseURL:      baseURL,
		DefaultModel: model,
		Models: []string{
			"deepseek/deepseek-chat",
			"openai/gpt-4o-mini",
			"anthropic/claude-3.5-sonnet",
			"google/gemini-flash-1.5",
			"meta-llama/llama-3.1-70b-instruct",
		},
		Headers: map[string]string{
			"HTTP-Referer": cfg.Referer,
			"X-Title":      cfg.Title,
		},
	})
}
