package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/llm"
)

func TestComplete(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"message":{"role":"assistant","content":"Index funds are low cost."},"done":true,"prompt_eval_count":3,"eval_count":7}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL+"/", "")
	resp, err := p.Complete(context.Background(), llm.BuildSummaryRequest(
		[]llm.Message{{Role: llm.RoleUser, Content: "What are index funds?"}}, "mistral",
	))
	require.NoError(t, err)

	assert.Equal(t, "Index funds are low cost.", resp.Content)
	assert.Equal(t, 10, resp.TokensUsed)
	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, float64(400), got.Options["num_predict"])
	require.Len(t, got.Messages, 2)
}

func TestComplete_NotConfigured(t *testing.T) {
	p := NewProvider("", "")
	assert.False(t, p.IsConfigured())

	_, err := p.Complete(context.Background(), llm.Request{})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
