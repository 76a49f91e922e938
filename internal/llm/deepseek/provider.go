package deepseek

import (
	"github.com/Rrens/finance-ai/internal/llm/openai"
)

// NewProvider creates a new DeepSeek provider. The DeepSeek API is
// OpenAI-compatible.
func NewProvider(apiKey, defaultModel string) *openai.Provider {
	if defaultModel == "" {
		defaultModel = "deepseek-chat"
	}
	return openai.New(openai.Options{
		Name:         "deepseek",
		APIKey:       apiKey,
		BaseURL:      "https://api.deepseek.com/v1",
		DefaultModel: defaultModel,
		Models: []string{
			"deepseek-chat",
			"deepseek-reasoner",
		},
	})
}
