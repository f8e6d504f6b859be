package insights

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "taskmate/pkg/logx"
)

func newTestGemini(t *testing.T, h http.HandlerFunc, retryMax int) *GeminiModel {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewGemini(GeminiConfig{
		BaseURL:    srv.URL + "/v1beta/",
		Model:      "models/test-model",
		APIKey:     "secret",
		RatePerSec: 1000,
		Burst:      10,
		RetryMax:   retryMax,
		RetryBase:  time.Millisecond,
	}, logx.Nop())
	require.NoError(t, err)
	return g
}

func candidate(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	return string(b)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	t.Parallel()
	_, err := NewGemini(GeminiConfig{}, logx.Nop())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeminiRequestShape(t *testing.T) {
	t.Parallel()
	var got map[string]any
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, candidate(`{"suggestions":"do it"}`))
	}, 0)

	text, err := g.Generate(context.Background(), Request{
		Flow:   "suggestions",
		Prompt: "hello",
		Schema: suggestionsSchema,
		Safety: suggestionsSafety,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"suggestions":"do it"}`, text)
	assert.Equal(t, "test-model", g.Name())

	gen := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	schema := gen["responseSchema"].(map[string]any)
	assert.Equal(t, "OBJECT", schema["type"])
	assert.Len(t, got["safetySettings"], 4)
	contents := got["contents"].([]any)
	part := contents[0].(map[string]any)["parts"].([]any)[0].(map[string]any)
	assert.Equal(t, "hello", part["text"])
}

func TestGeminiRetriesTransientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":{"code":429,"message":"slow down","status":"RESOURCE_EXHAUSTED"}}`)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = io.WriteString(w, candidate(`{"summary":"s","suggestedActions":"a"}`))
		}
	}, 3)

	text, err := g.Generate(context.Background(), Request{Prompt: "p", Schema: insightsSchema})
	require.NoError(t, err)
	assert.Contains(t, text, `"summary":"s"`)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad schema","status":"INVALID_ARGUMENT"}}`)
	}, 3)

	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad schema", apiErr.Message)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiGivesUpAfterRetries(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, 2)

	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiBlocked(t *testing.T) {
	t.Parallel()
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	}, 3)
	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestGeminiNoCandidates(t *testing.T) {
	t.Parallel()
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}, 3)
	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestGeminiHonoursContext(t *testing.T) {
	t.Parallel()
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 5)
	g.retryBase = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := g.Generate(ctx, Request{Prompt: "p"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeminiBackoffIsCapped(t *testing.T) {
	t.Parallel()
	g := &GeminiModel{retryBase: time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 16 * time.Second},
		{6, maxRetryDelay},
		{64, maxRetryDelay},
		{1000, maxRetryDelay},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.backoff(tt.attempt), "attempt %d", tt.attempt)
	}

	g.retryBase = time.Hour
	assert.Equal(t, maxRetryDelay, g.backoff(1))
}

func TestNewGeminiDefaults(t *testing.T) {
	t.Parallel()
	g, err := NewGemini(GeminiConfig{APIKey: "k"}, logx.Nop())
	require.NoError(t, err)
	assert.Equal(t, defaultBurst, g.limiter.Burst())
	assert.Equal(t, defaultRetryMax, g.retryMax)
	assert.Equal(t, defaultRetryBase, g.retryBase)
	assert.Equal(t, defaultTimeout, g.client.Timeout)

	g, err = NewGemini(GeminiConfig{APIKey: "k", RetryMax: -1}, logx.Nop())
	require.NoError(t, err)
	assert.Zero(t, g.retryMax)
}
