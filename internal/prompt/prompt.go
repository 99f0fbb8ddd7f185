// Package prompt assembles bounded, guarded prompts for the generation
// gateway. It is pure data transformation: every rule here can be asserted
// in tests without touching a live model.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/lmsbot/internal/classify"
	"github.com/ziadkadry99/lmsbot/internal/llm"
	"github.com/ziadkadry99/lmsbot/internal/retrieval"
)

// RefusalMessage is the canned reply for off-topic questions. The instruction
// block tells the model to return it verbatim.
const RefusalMessage = "I can only help with questions about your course materials."

const baseInstructions = `You are a course assistant for a learning platform.
Answer using only the context provided below. If the context does not contain
the answer, say you do not have that information. Never invent facts and never
mention the context, sources, or retrieval process. If the question is about
an unrelated subject such as politics, sports, or entertainment, reply exactly:
"` + RefusalMessage + `"`

const structuredClause = `The question asks for an explanation; structure the
answer with short numbered steps or bullet points.`

// Builder assembles prompts under fixed size bounds.
type Builder struct {
	// MaxChunks caps the number of context chunks included, most relevant first.
	MaxChunks int
	// MaxTurns caps the number of trailing conversation turns included.
	MaxTurns int
	// TurnBudget caps each included turn's character count.
	TurnBudget int
}

// NewBuilder returns a Builder with the given bounds, substituting defaults
// for non-positive values.
func NewBuilder(maxChunks, maxTurns, turnBudget int) *Builder {
	if maxChunks <= 0 {
		maxChunks = 1
	}
	if maxTurns <= 0 {
		maxTurns = 2
	}
	if turnBudget <= 0 {
		turnBudget = 500
	}
	return &Builder{MaxChunks: maxChunks, MaxTurns: maxTurns, TurnBudget: turnBudget}
}

// Build assembles the full prompt for a query. chunks may arrive unsorted;
// only the top MaxChunks by score are used. window is the conversation
// sliding window, oldest first. course and sourceIndicator are optional.
func (b *Builder) Build(query string, chunks []retrieval.Chunk, window []llm.Message, course, sourceIndicator string) string {
	var sb strings.Builder

	sb.WriteString(baseInstructions)
	sb.WriteString("\n")

	if course != "" {
		fmt.Fprintf(&sb, "\nYou are scoped to the course %q. If the question is about a different course, say you can only answer about this one.\n", course)
	}
	if sourceIndicator != "" {
		fmt.Fprintf(&sb, "\nThe student is asking about %s material.\n", sourceIndicator)
	}
	if classify.HasExplanatoryKeyword(query) {
		sb.WriteString("\n")
		sb.WriteString(structuredClause)
		sb.WriteString("\n")
	}

	if len(chunks) > 0 {
		sorted := make([]retrieval.Chunk, len(chunks))
		copy(sorted, chunks)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
		if len(sorted) > b.MaxChunks {
			sorted = sorted[:b.MaxChunks]
		}

		sb.WriteString("\nContext:\n")
		for i, chunk := range sorted {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, chunk.Text)
		}
	}

	if len(window) > 0 {
		turns := window
		if len(turns) > b.MaxTurns {
			turns = turns[len(turns)-b.MaxTurns:]
		}
		sb.WriteString("\nRecent conversation:\n")
		for _, turn := range turns {
			content := turn.Content
			if utf8.RuneCountInString(content) > b.TurnBudget {
				content = string([]rune(content)[:b.TurnBudget])
			}
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, content)
		}
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n", query)

	return sb.String()
}
