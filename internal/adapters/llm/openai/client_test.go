package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Alizadekh/moodweb-extension-backend/internal/adapters/llm/openai"
	"github.com/Alizadekh/moodweb-extension-backend/internal/domain"
	"github.com/Alizadekh/moodweb-extension-backend/internal/ports"
)

func completionBody(contents ...string) map[string]any {
	choices := make([]map[string]any, len(contents))
	for i, c := range contents {
		choices[i] = map[string]any{
			"index":         i,
			"message":       map[string]any{"role": "assistant", "content": c},
			"finish_reason": "stop",
		}
	}
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"model":   "test-model",
		"choices": choices,
		"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 1, "total_tokens": 11},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newClient(srv *httptest.Server) *openai.Client {
	return openai.NewClient(srv.Client(), "test-key", srv.URL+"/", "test-model", nil, slog.Default())
}

func TestClient_Complete_Success(t *testing.T) {
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)

		writeJSON(w, http.StatusOK, completionBody("  en\n"))
	}))
	defer srv.Close()

	out, err := newClient(srv).Complete(context.Background(), ports.CompletionRequest{
		System:      "You are a language detector.",
		User:        "Detect the language of this text: hello",
		Temperature: 0.7,
		MaxTokens:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, "en", out)

	assert.Equal(t, "test-model", gotReq["model"])
	assert.EqualValues(t, 2, gotReq["max_tokens"])
	assert.InDelta(t, 0.7, gotReq["temperature"], 1e-6)

	msgs, ok := gotReq["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "You are a language detector.", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestClient_Complete_ZeroTemperatureIsSent(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		writeJSON(w, http.StatusOK, completionBody("tr"))
	}))
	defer srv.Close()

	_, err := newClient(srv).Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 2})
	require.NoError(t, err)

	temp, ok := gotReq["temperature"].(float64)
	require.True(t, ok, "temperature must be present on the wire")
	assert.InDelta(t, 0, temp, 1e-6)
}

func TestClient_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, completionBody())
	}))
	defer srv.Close()

	_, err := newClient(srv).Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamShape)
	assert.NotErrorIs(t, err, domain.ErrUpstreamCall)
}

func TestClient_Complete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, completionBody("   "))
	}))
	defer srv.Close()

	_, err := newClient(srv).Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
	assert.ErrorIs(t, err, domain.ErrUpstreamShape)
}

func TestClient_Complete_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html", "<html>gateway</html>"},
		{"choices string", `{"choices":"oops"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := newClient(srv).Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUpstreamShape)
			assert.NotErrorIs(t, err, domain.ErrUpstreamCall)
		})
	}
}

func TestClient_Complete_ErrorStatusWithHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	_, err := newClient(srv).Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamCall)
	assert.NotErrorIs(t, err, domain.ErrUpstreamShape)
}

func TestClient_Complete_UpstreamError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit_error", "code": "429"},
		})
	}))
	defer srv.Close()

	_, err := newClient(srv).Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamCall)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, int32(1), calls.Load(), "calls must not be retried")
}

func TestClient_Complete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := openai.NewClient(http.DefaultClient, "key", url, "model", nil, slog.Default())
	_, err := client.Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
	assert.ErrorIs(t, err, domain.ErrUpstreamCall)
}

func TestClient_Complete_RateLimitWaitCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, completionBody("ok"))
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	client := openai.NewClient(srv.Client(), "key", srv.URL, "model", limiter, slog.Default())

	_, err := client.Complete(context.Background(), ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Complete(ctx, ports.CompletionRequest{System: "s", User: "u", MaxTokens: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamCall))
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, openai.NewLimiter(0))
	assert.Nil(t, openai.NewLimiter(-5))

	l := openai.NewLimiter(120)
	require.NotNil(t, l)
	assert.InDelta(t, 2.0, float64(l.Limit()), 1e-9)
}
