package h5p

import (
	"regexp"
	"strconv"
	"strings"
)

// Defaults applied when the user's parameter utterance leaves a field blank.
const (
	DefaultQuantity   = 5
	DefaultDifficulty = "intermediate"
)

// DefaultQuestionType is the single fallback question type.
const DefaultQuestionType = "multiple_choice"

var quantityPattern = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:questions?|slides?|items?|cards?)\b`)

var difficulties = []string{"beginner", "intermediate", "advanced"}

// questionTypeKeywords maps utterance phrases to canonical type identifiers.
// Ordered so longer phrases match before their substrings.
var questionTypeKeywords = []struct {
	phrase string
	id     string
}{
	{"multiple choice", "multiple_choice"},
	{"multiple-choice", "multiple_choice"},
	{"true/false", "true_false"},
	{"true or false", "true_false"},
	{"true false", "true_false"},
	{"fill in the blank", "fill_blank"},
	{"fill-in-the-blank", "fill_blank"},
	{"short answer", "short_answer"},
	{"matching", "matching"},
}

// ExtractParameters pulls structured parameters out of free text. Fields the
// text does not mention stay zero; defaults are applied at generation time,
// not here, so the session records what the user actually said.
func ExtractParameters(text string) Parameters {
	lower := strings.ToLower(text)
	var p Parameters

	if m := quantityPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			p.Quantity = n
		}
	}

	for _, d := range difficulties {
		if strings.Contains(lower, d) {
			p.Difficulty = d
			break
		}
	}

	seen := map[string]bool{}
	for _, kw := range questionTypeKeywords {
		if strings.Contains(lower, kw.phrase) && !seen[kw.id] {
			p.QuestionTypes = append(p.QuestionTypes, kw.id)
			seen[kw.id] = true
		}
	}

	return p
}

// withDefaults fills the blanks the user left.
func (p Parameters) withDefaults() Parameters {
	if p.Quantity <= 0 {
		p.Quantity = DefaultQuantity
	}
	if p.Difficulty == "" {
		p.Difficulty = DefaultDifficulty
	}
	if len(p.QuestionTypes) == 0 {
		p.QuestionTypes = []string{DefaultQuestionType}
	}
	return p
}

// modificationPattern matches whole words only, so "yesterday" and "eyes"
// do not read as consent to edit.
var modificationPattern = regexp.MustCompile(`(?i)\b(yes|modify|change|edit)\b`)

// wantsModification reports whether a complete-stage utterance asks for edits.
func wantsModification(text string) bool {
	return modificationPattern.MatchString(text)
}
