package ports

import "context"

// CompletionRequest is one system/user prompt pair sent to the completion service.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Completer returns the trimmed text of the first completion choice.
// Implementations make a single attempt per call.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
