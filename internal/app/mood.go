package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Alizadekh/moodweb-extension-backend/internal/domain"
	"github.com/Alizadekh/moodweb-extension-backend/internal/ports"
)

// AnalyzeRequest is the application-level input (no HTTP types).
type AnalyzeRequest struct {
	UserInput string
}

// Options toggles optional pipeline stages.
type Options struct {
	// Recommendations enables the media and activity stages.
	Recommendations bool
}

// MoodService runs the analysis pipeline against a completion service.
// It holds no per-request state and is safe for concurrent use.
type MoodService struct {
	prompts ports.PromptBook
	llm     ports.Completer
	clock   domain.Clock
	logger  *slog.Logger
	opts    Options
}

func NewMoodService(prompts ports.PromptBook, llm ports.Completer, clock domain.Clock, logger *slog.Logger, opts Options) *MoodService {
	return &MoodService{
		prompts: prompts,
		llm:     llm,
		clock:   clock,
		logger:  logger,
		opts:    opts,
	}
}

// Analyze validates the input, then detects language, classifies mood,
// generates a quote and, when enabled, both recommendations.
// Any stage failure aborts the run; no partial result is returned.
func (s *MoodService) Analyze(ctx context.Context, req AnalyzeRequest) (domain.Analysis, error) {
	text := strings.TrimSpace(req.UserInput)
	if text == "" {
		return domain.Analysis{}, domain.ErrInvalidInput
	}

	lang, err := s.DetectLanguage(ctx, text)
	if err != nil {
		return domain.Analysis{}, err
	}

	mood, err := s.ClassifyMood(ctx, text)
	if err != nil {
		return domain.Analysis{}, err
	}

	quote, err := s.GenerateQuote(ctx, mood, lang)
	if err != nil {
		return domain.Analysis{}, err
	}

	out := domain.Analysis{
		Mood:     mood,
		Language: lang,
		Quote:    quote,
	}

	if s.opts.Recommendations {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			media, err := s.RecommendMedia(gctx, mood, lang, text)
			out.MediaRecommendation = media
			return err
		})
		g.Go(func() error {
			activity, err := s.RecommendActivity(gctx, mood, lang, text)
			out.ActivityRecommendation = activity
			return err
		})
		if err := g.Wait(); err != nil {
			return domain.Analysis{}, err
		}
	}

	out.CompletedAt = s.clock.Now().UTC()
	return out, nil
}

func (s *MoodService) DetectLanguage(ctx context.Context, text string) (domain.Language, error) {
	raw, err := s.complete(ctx, domain.StageDetectLanguage, ports.PromptVars{Text: text})
	if err != nil {
		return "", err
	}
	lang, err := domain.ParseLanguage(raw)
	if err != nil {
		return "", s.fail(ctx, domain.StageDetectLanguage, err)
	}
	return lang, nil
}

func (s *MoodService) ClassifyMood(ctx context.Context, text string) (domain.Mood, error) {
	raw, err := s.complete(ctx, domain.StageClassifyMood, ports.PromptVars{Text: text, Moods: domain.Moods()})
	if err != nil {
		return "", err
	}
	mood, err := domain.ParseMood(raw)
	if err != nil {
		return "", s.fail(ctx, domain.StageClassifyMood, err)
	}
	return mood, nil
}

// GenerateQuote returns the model's quote verbatim; its language and length
// are not checked.
func (s *MoodService) GenerateQuote(ctx context.Context, mood domain.Mood, lang domain.Language) (string, error) {
	return s.complete(ctx, domain.StageGenerateQuote, ports.PromptVars{Mood: mood, Language: lang})
}

func (s *MoodService) RecommendMedia(ctx context.Context, mood domain.Mood, lang domain.Language, text string) (string, error) {
	return s.complete(ctx, domain.StageRecommendMedia, ports.PromptVars{Text: text, Mood: mood, Language: lang})
}

func (s *MoodService) RecommendActivity(ctx context.Context, mood domain.Mood, lang domain.Language, text string) (string, error) {
	return s.complete(ctx, domain.StageRecommendActivity, ports.PromptVars{Text: text, Mood: mood, Language: lang})
}

func (s *MoodService) complete(ctx context.Context, stage domain.Stage, vars ports.PromptVars) (string, error) {
	req, err := s.prompts.Render(stage, vars)
	if err != nil {
		return "", s.fail(ctx, stage, fmt.Errorf("render prompt: %w", err))
	}
	out, err := s.llm.Complete(ctx, req)
	if err != nil {
		return "", s.fail(ctx, stage, err)
	}
	return out, nil
}

func (s *MoodService) fail(ctx context.Context, stage domain.Stage, err error) error {
	level := slog.LevelError
	if errors.Is(err, context.Canceled) {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "pipeline stage failed", "stage", stage, "error", err)
	return &domain.StageError{Stage: stage, Err: err}
}
