package http

import "encoding/json"

// AnalyzeMoodRequest is the JSON body accepted by POST /analyze-mood.
// UserInput stays raw so that non-string values can be rejected.
type AnalyzeMoodRequest struct {
	UserInput json.RawMessage `json:"userInput"`
}

// AnalyzeMoodResponse is the JSON shape returned on success.
type AnalyzeMoodResponse struct {
	Mood                   string `json:"mood"`
	Quote                  string `json:"quote"`
	Language               string `json:"language"`
	MediaRecommendation    string `json:"mediaRecommendation,omitempty"`
	ActivityRecommendation string `json:"activityRecommendation,omitempty"`
	Timestamp              string `json:"timestamp"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const (
	msgInvalidInput     = "Invalid input. Please provide a text string."
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "An internal server error occurred."
	msgNotFound         = "Endpoint not found"
	msgServerError      = "Server error"
)
