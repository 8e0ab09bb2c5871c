package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Alizadekh/moodweb-extension-backend/internal/app"
	"github.com/Alizadekh/moodweb-extension-backend/internal/domain"
)

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Analyzer runs the mood pipeline for one request.
type Analyzer interface {
	Analyze(ctx context.Context, req app.AnalyzeRequest) (domain.Analysis, error)
}

type Handler struct {
	svc           Analyzer
	logger        *slog.Logger
	exposeDetails bool
}

// NewHandler wires svc to the HTTP routes. When exposeDetails is set, 500
// responses include the underlying error message.
func NewHandler(svc Analyzer, logger *slog.Logger, exposeDetails bool) *Handler {
	return &Handler{svc: svc, logger: logger, exposeDetails: exposeDetails}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.Any("/analyze-mood", h.AnalyzeMood)
	e.Any("/api/analyze-mood", h.AnalyzeMood)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) AnalyzeMood(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusOK)
	case http.MethodPost:
	default:
		return h.mapError(c, domain.ErrUnsupportedMethod)
	}

	text, err := decodeUserInput(c)
	if err != nil {
		return h.mapError(c, err)
	}

	// A client disconnect must not abort upstream calls already in flight.
	ctx := context.WithoutCancel(c.Request().Context())
	out, err := h.svc.Analyze(ctx, app.AnalyzeRequest{UserInput: text})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, ToResponse(out))
}

func decodeUserInput(c echo.Context) (string, error) {
	var req AnalyzeMoodRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return "", domain.ErrInvalidInput
	}
	var text string
	if err := json.Unmarshal(req.UserInput, &text); err != nil {
		return "", domain.ErrInvalidInput
	}
	return text, nil
}

// ToResponse converts a pipeline result into its JSON representation.
func ToResponse(a domain.Analysis) AnalyzeMoodResponse {
	return AnalyzeMoodResponse{
		Mood:                   string(a.Mood),
		Quote:                  a.Quote,
		Language:               string(a.Language),
		MediaRecommendation:    a.MediaRecommendation,
		ActivityRecommendation: a.ActivityRecommendation,
		Timestamp:              a.CompletedAt.UTC().Format(timestampLayout),
	}
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidInput})
	case errors.Is(err, domain.ErrUnsupportedMethod):
		return c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: msgMethodNotAllowed})
	default:
		// The failing stage was already logged by the service.
		h.logger.DebugContext(c.Request().Context(), "analysis failed", "error", err)

		resp := ErrorResponse{Error: msgInternal}
		if h.exposeDetails {
			resp.Details = err.Error()
		}
		return c.JSON(http.StatusInternalServerError, resp)
	}
}
