// Package classify derives intent tags from raw query text. It is pure:
// no I/O, no state, and unmatched input simply yields the zero
// Classification, which callers treat as an ordinary retrieval question.
package classify

import (
	"regexp"
	"strings"
)

// Classification is the set of intent tags derived from a query.
type Classification struct {
	IsGreeting          bool
	IsVideoIntent       bool
	IsCourseMetaIntent  bool
	IsContentGeneration bool
	// Content holds the extracted content request when IsContentGeneration
	// is set.
	Content *ContentRequest
}

// ContentRequest is the structured form of a content-generation utterance.
type ContentRequest struct {
	Action      string
	ContentType string
	Topic       string
}

// Content type identifiers, matching the catalogue served by the H5P API.
const (
	TypeQuiz             = "quiz"
	TypePresentation     = "course_presentation"
	TypeInteractiveVideo = "interactive_video"
	TypeFlashcards       = "flashcards"
	TypeDragAndDrop      = "drag_and_drop"
)

var greetings = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"greetings", "howdy", "what's up", "yo",
}

var questionWords = []string{
	"what", "how", "why", "when", "where", "who", "which",
	"can", "could", "do", "does", "is", "are", "explain",
}

var videoKeywords = []string{
	"video", "youtube", "watch", "tutorial", "lecture", "recording",
}

var courseMetaPhrases = []string{
	"this course", "the course", "course about", "course cover",
	"course content", "course syllabus", "course structure",
}

// contentPattern extracts (action, contentType, topic) from requests like
// "create a quiz about photosynthesis".
var contentPattern = regexp.MustCompile(
	`(?i)\b(create|generate|make|build)\b(?:\s+(?:a|an|some))?\s+` +
		`(quiz(?:zes)?|(?:course\s+)?presentation|interactive\s+video|flashcards?|drag\s+and\s+drop)` +
		`(?:\s+(?:about|on|for|covering)\s+(.+?))?[.?!]?\s*$`)

// genericContentPattern backstops requests that only mention the package
// format ("make some h5p content on mitosis"); contentType defaults to quiz.
var genericContentPattern = regexp.MustCompile(
	`(?i)\b(create|generate|make|build)\b(?:\s+(?:a|an|some))?\s+(?:h5p|interactive)\s*` +
		`(?:content|material|activity|exercise)?` +
		`(?:\s+(?:about|on|for|covering)\s+(.+?))?[.?!]?\s*$`)

// Classify derives intent tags from text. hasPriorContext marks queries that
// arrive mid-conversation; those are never treated as greetings, since a "hi"
// three turns in is a follow-up, not an opener.
func Classify(text string, hasPriorContext bool) Classification {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Classification{}
	}

	c := Classification{
		IsVideoIntent:      containsAny(lower, videoKeywords),
		IsCourseMetaIntent: containsAnyPhrase(lower, courseMetaPhrases),
	}

	if req := extractContentRequest(text); req != nil {
		c.IsContentGeneration = true
		c.Content = req
		return c
	}

	if !hasPriorContext && matchesGreeting(lower) {
		words := len(strings.Fields(lower))
		asksQuestion := strings.Contains(lower, "?") || containsQuestionWord(lower)
		if words < 5 || !asksQuestion {
			c.IsGreeting = true
		}
	}

	return c
}

func matchesGreeting(lower string) bool {
	for _, g := range greetings {
		if lower == g ||
			strings.HasPrefix(lower, g+" ") ||
			strings.HasPrefix(lower, g+",") ||
			strings.HasPrefix(lower, g+"!") {
			return true
		}
	}
	return false
}

func containsQuestionWord(lower string) bool {
	for _, w := range strings.Fields(strings.Map(stripPunct, lower)) {
		for _, q := range questionWords {
			if w == q {
				return true
			}
		}
	}
	return false
}

func stripPunct(r rune) rune {
	switch r {
	case '?', '!', '.', ',', ';', ':':
		return ' '
	}
	return r
}

func containsAny(lower string, keywords []string) bool {
	for _, w := range strings.Fields(strings.Map(stripPunct, lower)) {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}

func containsAnyPhrase(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// extractContentRequest parses a content-generation utterance, or returns nil.
func extractContentRequest(text string) *ContentRequest {
	if m := contentPattern.FindStringSubmatch(text); m != nil {
		return &ContentRequest{
			Action:      strings.ToLower(m[1]),
			ContentType: normalizeContentType(m[2]),
			Topic:       strings.TrimSpace(m[3]),
		}
	}

	if m := genericContentPattern.FindStringSubmatch(text); m != nil {
		return &ContentRequest{
			Action:      strings.ToLower(m[1]),
			ContentType: TypeQuiz,
			Topic:       strings.TrimSpace(m[2]),
		}
	}

	// A bare mention of the package format is enough to start the flow.
	if containsAny(strings.ToLower(text), []string{"h5p"}) {
		return &ContentRequest{ContentType: TypeQuiz}
	}

	return nil
}

func normalizeContentType(raw string) string {
	switch normalized := strings.Join(strings.Fields(strings.ToLower(raw)), " "); normalized {
	case "quiz", "quizzes":
		return TypeQuiz
	case "presentation", "course presentation":
		return TypePresentation
	case "interactive video":
		return TypeInteractiveVideo
	case "flashcard", "flashcards":
		return TypeFlashcards
	case "drag and drop":
		return TypeDragAndDrop
	default:
		return TypeQuiz
	}
}

// HasExplanatoryKeyword reports whether the query asks for an explanation,
// comparison or walkthrough, which the prompt builder turns into a request
// for a structured answer.
func HasExplanatoryKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range []string{"explain", "how", "why", "compare", "difference", "walk me through", "step"} {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
