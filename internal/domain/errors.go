package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnsupportedMethod     = errors.New("method not allowed")
	ErrUpstreamCall          = errors.New("upstream LLM call failed")
	ErrUpstreamShape         = errors.New("upstream LLM returned an empty or malformed response")
	ErrInvalidLanguageFormat = errors.New("invalid language code format")
	ErrInvalidMoodLabel      = errors.New("invalid mood label")
)

// StageError records which pipeline stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// InvalidOutputError carries model output that failed validation.
// Kind is one of ErrInvalidLanguageFormat or ErrInvalidMoodLabel.
type InvalidOutputError struct {
	Kind  error
	Value string
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Value)
}

func (e *InvalidOutputError) Unwrap() error { return e.Kind }
