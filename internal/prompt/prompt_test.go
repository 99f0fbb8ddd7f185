package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ziadkadry99/lmsbot/internal/llm"
	"github.com/ziadkadry99/lmsbot/internal/retrieval"
)

func TestBuildContainsGuards(t *testing.T) {
	b := NewBuilder(1, 2, 500)
	out := b.Build("what is photosynthesis", nil, nil, "", "")

	if !strings.Contains(out, RefusalMessage) {
		t.Error("prompt must embed the refusal clause")
	}
	if !strings.Contains(out, "Never invent facts") {
		t.Error("prompt must forbid fabrication")
	}
	if !strings.Contains(out, "Question: what is photosynthesis") {
		t.Error("prompt must end with the question")
	}
}

func TestBuildChunkLimitAndOrdering(t *testing.T) {
	b := NewBuilder(1, 2, 500)
	chunks := []retrieval.Chunk{
		{Text: "low relevance chunk", Score: 0.2},
		{Text: "high relevance chunk", Score: 0.9},
		{Text: "mid relevance chunk", Score: 0.5},
	}

	out := b.Build("what is photosynthesis", chunks, nil, "", "")

	if !strings.Contains(out, "high relevance chunk") {
		t.Error("most relevant chunk missing")
	}
	if strings.Contains(out, "mid relevance chunk") || strings.Contains(out, "low relevance chunk") {
		t.Error("prompt exceeded the chunk limit")
	}
}

func TestBuildTurnWindowAndTruncation(t *testing.T) {
	b := NewBuilder(1, 2, 10)
	window := []llm.Message{
		{Role: llm.RoleUser, Content: "oldest turn that must be dropped"},
		{Role: llm.RoleUser, Content: "second turn content beyond budget"},
		{Role: llm.RoleAssistant, Content: "third turn content beyond budget"},
	}

	out := b.Build("follow-up question", nil, window, "", "")

	if strings.Contains(out, "oldest turn") {
		t.Error("window must keep only the most recent turns")
	}
	if !strings.Contains(out, "second tur") {
		t.Error("expected truncated second turn present")
	}
	if strings.Contains(out, "second turn content beyond budget") {
		t.Error("turn content must be truncated to the budget")
	}
}

func TestBuildTurnTruncationMultibyte(t *testing.T) {
	b := NewBuilder(1, 2, 10)
	window := []llm.Message{
		{Role: llm.RoleUser, Content: strings.Repeat("ü", 30)},
	}

	out := b.Build("follow-up question", nil, window, "", "")

	if !strings.Contains(out, strings.Repeat("ü", 10)) {
		t.Error("expected the turn cut to ten whole runes")
	}
	if strings.Contains(out, strings.Repeat("ü", 11)) {
		t.Error("turn content exceeded the budget")
	}
	if !utf8.ValidString(out) {
		t.Error("truncation split a multi-byte character")
	}
}

func TestBuildCourseScopingClause(t *testing.T) {
	b := NewBuilder(1, 2, 500)

	out := b.Build("what is mitosis", nil, nil, "Biology101", "")
	if !strings.Contains(out, `"Biology101"`) {
		t.Error("expected course scoping clause naming the course")
	}

	out = b.Build("what is mitosis", nil, nil, "", "")
	if strings.Contains(out, "scoped to the course") {
		t.Error("unexpected course clause without a bound course")
	}
}

func TestBuildStructuredExplanationClause(t *testing.T) {
	b := NewBuilder(1, 2, 500)

	out := b.Build("explain how photosynthesis works", nil, nil, "", "")
	if !strings.Contains(out, "numbered steps") {
		t.Error("explanatory query should request structured output")
	}

	out = b.Build("list the chapters", nil, nil, "", "")
	if strings.Contains(out, "numbered steps") {
		t.Error("non-explanatory query should not request structured output")
	}
}

func TestBuildSourceIndicator(t *testing.T) {
	b := NewBuilder(1, 2, 500)
	out := b.Build("what does the video say", nil, nil, "", "video")
	if !strings.Contains(out, "video material") {
		t.Error("expected source indicator clause")
	}
}

func TestBuildDoesNotMutateChunkOrder(t *testing.T) {
	b := NewBuilder(2, 2, 500)
	chunks := []retrieval.Chunk{
		{Text: "a", Score: 0.1},
		{Text: "b", Score: 0.9},
	}
	b.Build("q", chunks, nil, "", "")
	if chunks[0].Text != "a" || chunks[1].Text != "b" {
		t.Error("Build must not reorder the caller's slice")
	}
}
