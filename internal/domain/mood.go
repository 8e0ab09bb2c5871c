package domain

import (
	"regexp"
	"strings"
)

// Mood is one of the six labels the classifier may assign.
type Mood string

const (
	Sad       Mood = "Sad"
	Happy     Mood = "Happy"
	Excited   Mood = "Excited"
	Motivated Mood = "Motivated"
	Stressed  Mood = "Stressed"
	Angry     Mood = "Angry"
)

var moods = []Mood{Sad, Happy, Excited, Motivated, Stressed, Angry}

// Moods returns the closed set of labels in canonical order.
func Moods() []Mood {
	out := make([]Mood, len(moods))
	copy(out, moods)
	return out
}

// ParseMood converts raw classifier output into a Mood.
// Matching is exact after trimming whitespace.
func ParseMood(raw string) (Mood, error) {
	s := strings.TrimSpace(raw)
	for _, m := range moods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &InvalidOutputError{Kind: ErrInvalidMoodLabel, Value: s}
}

// Negative reports whether the mood calls for encouragement rather than momentum.
func (m Mood) Negative() bool {
	switch m {
	case Sad, Stressed, Angry:
		return true
	default:
		return false
	}
}

func (m Mood) String() string { return string(m) }

// Language is a two-letter lowercase language code such as "en" or "tr".
type Language string

var languagePattern = regexp.MustCompile(`^[a-z]{2}$`)

// ParseLanguage trims and lowercases raw detector output and requires
// exactly two ASCII letters.
func ParseLanguage(raw string) (Language, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !languagePattern.MatchString(s) {
		return "", &InvalidOutputError{Kind: ErrInvalidLanguageFormat, Value: s}
	}
	return Language(s), nil
}

// langNames maps common codes to human-readable names for prompts.
var langNames = map[Language]string{
	"en": "English",
	"ru": "Russian",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
	"tr": "Turkish",
	"az": "Azerbaijani",
	"uk": "Ukrainian",
	"pl": "Polish",
}

// Name returns the English name of the language, or the code itself when unknown.
func (l Language) Name() string {
	if name, ok := langNames[l]; ok {
		return name
	}
	return string(l)
}

func (l Language) String() string { return string(l) }
