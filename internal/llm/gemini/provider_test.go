package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/llm"
)

func TestSplitTurns(t *testing.T) {
	history, last := splitTurns([]llm.Message{
		{Role: llm.RoleUser, Content: "How much should I save?"},
		{Role: llm.RoleAssistant, Content: "About 20% of income."},
		{Role: llm.RoleUser, Content: "And for retirement?"},
	})

	assert.Equal(t, "And for retirement?", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("About 20% of income."), history[1].Parts[0])
}

func TestSplitTurns_Empty(t *testing.T) {
	history, last := splitTurns(nil)
	assert.Nil(t, history)
	assert.Empty(t, last)
}

func TestCollectText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Text("there")}},
		}},
	}
	assert.Equal(t, "Hello there", collectText(resp))
	assert.Empty(t, collectText(&genai.GenerateContentResponse{}))
}

func TestComplete_NotConfigured(t *testing.T) {
	p := NewProvider(config.GeminiConfig{})
	assert.Equal(t, "gemini-2.5-flash", p.DefaultModel())

	_, err := p.Complete(context.Background(), llm.Request{})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
