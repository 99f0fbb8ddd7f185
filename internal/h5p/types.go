// Package h5p drives the multi-turn flow that collects parameters for
// structured learning content (quizzes, presentations, interactive videos)
// and generates it as JSON.
package h5p

import "time"

// Stage is the closed set of states a content session moves through. A
// conversation with no session is implicitly idle; invalid stages are
// unrepresentable by construction.
type Stage int

const (
	// StageParameters collects quantity, difficulty and question types.
	StageParameters Stage = iota + 1
	// StageName collects the content's display name.
	StageName
	// StageDescription collects the description, then triggers generation.
	StageDescription
	// StageComplete holds the generated result awaiting accept or modify.
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageParameters:
		return "parameters"
	case StageName:
		return "name"
	case StageDescription:
		return "description"
	case StageComplete:
		return "complete"
	default:
		return "invalid"
	}
}

// Parameters are the structured generation parameters extracted from free
// text, with defaults applied at generation time.
type Parameters struct {
	Quantity      int      `json:"quantity"`
	Difficulty    string   `json:"difficulty"`
	QuestionTypes []string `json:"question_types"`
}

// Session is one content-creation conversation. Exactly one session is
// active per conversation at a time.
type Session struct {
	ID          string
	Course      string
	ContentType string
	Topic       string
	Params      Parameters
	// RawParams keeps the user's parameter utterance verbatim; extraction
	// is lossy and the raw text feeds the generation prompt.
	RawParams   string
	Name        string
	Description string
	Stage       Stage
	Result      *Content
	CreatedAt   time.Time
}

// Content is the structured learning content returned to consumers.
type Content struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Items []Item `json:"items"`
}

// Item is one question or slide.
type Item struct {
	Question string   `json:"question"`
	Kind     string   `json:"kind,omitempty"`
	Answers  []Answer `json:"answers,omitempty"`
}

// Answer is one option with its correctness marker.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Reply is the machine's turn output.
type Reply struct {
	Text string
	// Content and ContentID are set once generation has happened.
	Content   *Content
	ContentID string
	// Done marks the session as finished (destroyed).
	Done bool
}

// ContentRecord is a persisted generated-content row.
type ContentRecord struct {
	ID             string
	ConversationID string
	Course         string
	ContentType    string
	Topic          string
	Name           string
	Description    string
	Body           string
	// CreatedAt is the SQLite datetime text, set by the database.
	CreatedAt string
}
