package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/Rrens/finance-ai/internal/config"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = restore })
	return &buf
}

func TestNewLLMRouter_NamesProviderInUse(t *testing.T) {
	buf := captureLog(t)

	router := newLLMRouter(config.LLMConfig{
		DefaultProvider: "openrouter",
		Gemini:          config.GeminiConfig{APIKey: "gemini-key"},
	})

	assert.Equal(t, "gemini", router.DefaultProvider())
	assert.Contains(t, buf.String(), `"using":"gemini"`)
	assert.NotContains(t, buf.String(), "fallback text")
}

func TestNewLLMRouter_NothingConfigured(t *testing.T) {
	buf := captureLog(t)

	router := newLLMRouter(config.LLMConfig{DefaultProvider: "openrouter"})

	assert.Empty(t, router.DefaultProvider())
	assert.Contains(t, buf.String(), "No LLM provider is configured")
}
