package ports

import "github.com/Alizadekh/moodweb-extension-backend/internal/domain"

// PromptVars holds the values interpolated into a stage prompt.
// Fields a stage does not need are left zero.
type PromptVars struct {
	Text     string
	Mood     domain.Mood
	Language domain.Language
	Moods    []domain.Mood
}

// PromptBook renders the completion request for a pipeline stage.
type PromptBook interface {
	Render(stage domain.Stage, vars PromptVars) (CompletionRequest, error)
}
