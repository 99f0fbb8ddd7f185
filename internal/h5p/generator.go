package h5p

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/llm"
	"github.com/ziadkadry99/lmsbot/internal/retrieval"
)

// completer is the slice of the generation gateway the generator needs.
type completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// retriever is the slice of the retrieval layer the generator needs.
type retriever interface {
	Retrieve(ctx context.Context, query string, opts retrieval.Options) (*retrieval.Result, error)
}

// Generator produces structured content from a completed session. If the
// provider chain fails or returns unparsable output, a deterministic
// template takes over so the pipeline never emits invalid JSON downstream.
type Generator struct {
	gateway   completer
	retriever retriever
	model     string
	log       *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(gateway completer, r retriever, model string, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{gateway: gateway, retriever: r, model: model, log: log}
}

const generationSystemPrompt = `You create learning content for a course platform.
Respond with a single JSON object and nothing else, using this shape:
{"title": string, "type": string, "items": [{"question": string, "kind": string,
"answers": [{"text": string, "correct": bool}]}]}.
Exactly one answer per item is correct unless the question kind requires otherwise.
For presentations, put the slide heading in "question" and leave "answers" empty.`

// Generate builds content for the session. It never returns an error for
// provider or parsing failures; those fall back to the template.
func (g *Generator) Generate(ctx context.Context, sess *Session) *Content {
	params := sess.Params.withDefaults()

	// Ground the content in course material when any is retrievable.
	var contextText string
	if g.retriever != nil && sess.Topic != "" {
		res, err := g.retriever.Retrieve(ctx, sess.Topic, retrieval.Options{
			Course: sess.Course,
			TopK:   2,
		})
		if err == nil && res.Outcome == retrieval.OutcomeOK && len(res.Chunks) > 0 {
			var parts []string
			for _, c := range res.Chunks {
				parts = append(parts, c.Text)
			}
			contextText = strings.Join(parts, "\n\n")
		}
	}

	userPrompt := buildGenerationQuery(sess, params, contextText)

	resp, err := g.gateway.Complete(ctx, llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: generationSystemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		MaxTokens:   2048,
		Temperature: 0.4,
		JSONMode:    true,
	})
	if err != nil {
		g.log.Warn("content generation failed, using template",
			zap.String("content_type", sess.ContentType), zap.Error(err))
		return Template(sess, params)
	}

	content, err := parseContent(resp.Content)
	if err != nil {
		g.log.Warn("content generation returned malformed JSON, using template",
			zap.String("content_type", sess.ContentType), zap.Error(err))
		return Template(sess, params)
	}

	content.Type = sess.ContentType
	if content.Title == "" {
		content.Title = defaultTitle(sess)
	}
	return content
}

// buildGenerationQuery synthesizes the generation request from everything
// the flow collected.
func buildGenerationQuery(sess *Session, params Parameters, contextText string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Create a %s with %d items about %q at %s difficulty.\n",
		strings.ReplaceAll(sess.ContentType, "_", " "), params.Quantity, sess.Topic, params.Difficulty)
	fmt.Fprintf(&sb, "Question types: %s.\n", strings.Join(params.QuestionTypes, ", "))
	if sess.Name != "" {
		fmt.Fprintf(&sb, "Title it %q.\n", sess.Name)
	}
	if sess.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", sess.Description)
	}
	if sess.RawParams != "" {
		fmt.Fprintf(&sb, "The author also said: %s\n", sess.RawParams)
	}
	if contextText != "" {
		fmt.Fprintf(&sb, "\nBase the content on this course material:\n%s\n", contextText)
	}

	return sb.String()
}

// parseContent decodes provider output into Content, tolerating markdown
// fences around the JSON.
func parseContent(raw string) (*Content, error) {
	cleaned := stripFences(raw)

	var content Content
	if err := json.Unmarshal([]byte(cleaned), &content); err != nil {
		return nil, fmt.Errorf("decoding content JSON: %w", err)
	}
	if content.Title == "" && len(content.Items) == 0 {
		return nil, fmt.Errorf("content JSON is empty")
	}
	return &content, nil
}

// stripFences removes a surrounding markdown code fence, which some models
// add even in JSON mode.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Template deterministically produces minimally valid content for a session.
func Template(sess *Session, params Parameters) *Content {
	params = params.withDefaults()
	content := &Content{
		Title: defaultTitle(sess),
		Type:  sess.ContentType,
	}

	topic := sess.Topic
	if topic == "" {
		topic = "the course material"
	}

	for i := 1; i <= params.Quantity; i++ {
		item := Item{Kind: params.QuestionTypes[0]}
		if sess.ContentType == "course_presentation" {
			item.Question = fmt.Sprintf("Slide %d: key points about %s", i, topic)
		} else {
			item.Question = fmt.Sprintf("Question %d: review what you learned about %s.", i, topic)
			item.Answers = []Answer{
				{Text: "Review the course material for this point", Correct: true},
				{Text: "Not covered in this course", Correct: false},
				{Text: "None of the above", Correct: false},
			}
		}
		content.Items = append(content.Items, item)
	}

	return content
}

func defaultTitle(sess *Session) string {
	if sess.Name != "" {
		return sess.Name
	}
	if sess.Topic != "" {
		return fmt.Sprintf("%s: %s", strings.ReplaceAll(sess.ContentType, "_", " "), sess.Topic)
	}
	return strings.ReplaceAll(sess.ContentType, "_", " ")
}
