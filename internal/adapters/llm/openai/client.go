// Package openai implements ports.Completer against any OpenAI-compatible
// chat completions endpoint (DashScope compatible mode, OpenRouter, OpenAI).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/Alizadekh/moodweb-extension-backend/internal/domain"
	"github.com/Alizadekh/moodweb-extension-backend/internal/ports"
)

// Client is safe for concurrent use.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient builds a client for baseURL. A nil limiter disables rate limiting.
func NewClient(httpClient *http.Client, apiKey, baseURL, model string, limiter *rate.Limiter, logger *slog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = httpClient

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: limiter,
		logger:  logger,
	}
}

// NewLimiter converts a requests-per-minute budget into a limiter.
// rpm <= 0 means unlimited and yields nil.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
}

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limit wait: %w", domain.ErrUpstreamCall, err)
		}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: wireTemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		c.logger.WarnContext(ctx, "completion call failed", "model", c.model, "latency_ms", latency, "error", err)
		return "", classifyError(err)
	}

	c.logger.DebugContext(ctx, "completion call",
		"model", c.model,
		"temperature", req.Temperature,
		"max_tokens", req.MaxTokens,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"latency_ms", latency,
	)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", domain.ErrUpstreamShape)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", domain.ErrUpstreamShape)
	}

	return content, nil
}

// classifyError separates a 2xx reply whose body could not be decoded
// (ErrUpstreamShape) from failed calls (ErrUpstreamCall). Error replies are
// checked first because RequestError unwraps to its own decode error.
func classifyError(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamCall, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamShape, err)
	}

	return fmt.Errorf("%w: %w", domain.ErrUpstreamCall, err)
}

// wireTemperature keeps an explicit zero on the wire; the SDK drops zero values
// as unset, which would leave the provider default in effect.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
