package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/api/handler"
	"github.com/Rrens/finance-ai/internal/llm"
	"github.com/Rrens/finance-ai/internal/llm/deepseek"
	"github.com/Rrens/finance-ai/internal/llm/ollama"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type flushFunc func(ctx context.Context) (int64, error)

func (f flushFunc) FlushAll(ctx context.Context) (int64, error) { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, rec.Body.String())
}

func TestReadyCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ReadyCheck(map[string]handler.Pinger{
			"storage": pingFunc(func(context.Context) error { return nil }),
		})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"storage":"ok"`)
	})

	t.Run("store down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ReadyCheck(map[string]handler.Pinger{
			"storage": pingFunc(func(context.Context) error { return nil }),
			"redis":   pingFunc(func(context.Context) error { return errors.New("refused") }),
		})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"redis":"unavailable"`)
	})
}

func TestListLLMProviders(t *testing.T) {
	router := llm.NewRouter("deepseek")
	router.RegisterProvider(deepseek.NewProvider("key", ""))
	router.RegisterProvider(ollama.NewProvider("http://localhost:11434", "llama3"))

	rec := httptest.NewRecorder()
	handler.ListLLMProviders(router)(rec, httptest.NewRequest(http.MethodGet, "/llm-providers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Providers       []llm.ProviderInfo `json:"providers"`
			DefaultProvider string             `json:"default_provider"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "deepseek", body.Data.DefaultProvider)
	require.Len(t, body.Data.Providers, 2)
	assert.Equal(t, "deepseek", body.Data.Providers[0].Name)
	assert.True(t, body.Data.Providers[0].Default)
}

func TestFlushCache(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.FlushCache(flushFunc(func(context.Context) (int64, error) { return 3, nil }))(rec, httptest.NewRequest(http.MethodPost, "/cache/flush", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"keys_deleted":3`)
}
