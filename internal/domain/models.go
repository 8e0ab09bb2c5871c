package domain

import "time"

// Clock abstracts the wall clock for deterministic testing.
type Clock interface {
	Now() time.Time
}

// Stage identifies one step of the analysis pipeline.
type Stage string

const (
	StageDetectLanguage    Stage = "detect_language"
	StageClassifyMood      Stage = "classify_mood"
	StageGenerateQuote     Stage = "generate_quote"
	StageRecommendMedia    Stage = "recommend_media"
	StageRecommendActivity Stage = "recommend_activity"
)

// Stages lists every stage in pipeline order.
func Stages() []Stage {
	return []Stage{
		StageDetectLanguage,
		StageClassifyMood,
		StageGenerateQuote,
		StageRecommendMedia,
		StageRecommendActivity,
	}
}

// Analysis is the result of one successful pipeline run.
// Recommendations are empty when the pipeline runs without them.
type Analysis struct {
	Mood                   Mood
	Language               Language
	Quote                  string
	MediaRecommendation    string
	ActivityRecommendation string
	CompletedAt            time.Time
}
