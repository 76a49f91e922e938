package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Options{
		Name:         "test",
		APIKey:       "sk-test",
		BaseURL:      srv.URL,
		DefaultModel: "default-model",
		Headers:      map[string]string{"X-Title": "FinanceAI"},
	})
}

func TestComplete_Success(t *testing.T) {
	var got chatRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "FinanceAI", r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Diversify."}}],"usage":{"total_tokens":42}}`))
	})

	resp, err := p.Complete(context.Background(), llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleSystem, Content: "sys"}, {Role: llm.RoleUser, Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   1200,
	})
	require.NoError(t, err)

	assert.Equal(t, "Diversify.", resp.Content)
	assert.Equal(t, 42, resp.TokensUsed)
	assert.Equal(t, "default-model", resp.Model)

	assert.Equal(t, "default-model", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 1200, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestComplete_ModelOverride(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "other-model", body.Model)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	resp, err := p.Complete(context.Background(), llm.Request{Model: "other-model"})
	require.NoError(t, err)
	assert.Equal(t, "other-model", resp.Model)
}

func TestComplete_MissingContentFallsBack(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	resp, err := p.Complete(context.Background(), llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, llm.FallbackContent, resp.Content)
}

func TestComplete_StatusError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	})

	_, err := p.Complete(context.Background(), llm.Request{})
	require.Error(t, err)

	var statusErr *llm.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "rate limited")
}

func TestComplete_NotConfigured(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := New(Options{Name: "test", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), llm.Request{})

	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.False(t, called)
	assert.False(t, p.IsConfigured())
}

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider("key", "")
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o-mini", p.DefaultModel())
	assert.NotEmpty(t, p.AvailableModels())
	assert.True(t, p.IsConfigured())
}
