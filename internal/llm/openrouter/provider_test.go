package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/llm"
)

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider(config.OpenRouterConfig{})

	assert.Equal(t, "openrouter", p.Name())
	assert.Equal(t, "deepseek/deepseek-chat", p.DefaultModel())
	assert.False(t, p.IsConfigured())
}

func TestComplete_SendsAttributionHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://app.local", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "FinanceAI", r.Header.Get("X-Title"))
		w.Write([]byte(`{"choices":[{"message":{"content":"Hello"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider(config.OpenRouterConfig{
		APIKey:  "or-key",
		BaseURL: srv.URL,
		Referer: "https://app.local",
		Title:   "FinanceAI",
	})

	resp, err := p.Complete(context.Background(), llm.BuildReplyRequest(
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}}, "",
	))
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Content)
	assert.Equal(t, "deepseek/deepseek-chat", resp.Model)
}
