// Package orchestrator composes the classifier, retriever, prompt builder
// and provider gateway into a single answer operation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/cache"
	"github.com/ziadkadry99/lmsbot/internal/classify"
	"github.com/ziadkadry99/lmsbot/internal/llm"
	"github.com/ziadkadry99/lmsbot/internal/prompt"
	"github.com/ziadkadry99/lmsbot/internal/retrieval"
)

// Query is one inbound question.
type Query struct {
	Text   string
	Course string
	// Source restricts retrieval to one source type, for example "youtube".
	Source         string
	ConversationID string
	// AllCourses searches across every course instead of the bound one.
	AllCourses bool
	// History is the caller-supplied conversation window, oldest first.
	// When empty and a conversation ID is set, the stored history is used.
	History []llm.Message
}

// Answer is the pipeline's response.
type Answer struct {
	Text           string
	ConversationID string
	// Cached marks a response served from the response cache.
	Cached bool
	// Provider names the backend that generated the text, empty for canned
	// and extractive responses.
	Provider string
}

// retriever is the slice of the retrieval layer the engine needs.
type retriever interface {
	Retrieve(ctx context.Context, query string, opts retrieval.Options) (*retrieval.Result, error)
}

// completionGateway is the slice of the provider gateway the engine needs.
type completionGateway interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
	Degraded() bool
}

// historyStore is the slice of the conversation store the engine needs.
type historyStore interface {
	AddTurn(ctx context.Context, conversationID string, role llm.Role, content string) error
	Window(ctx context.Context, conversationID string, limit int) ([]llm.Message, error)
}

// Options configure an Engine.
type Options struct {
	MaxQueryLength    int
	Model             string
	TopK              int
	GenerationTimeout time.Duration
}

// Engine runs the answer pipeline. Every collaborator except the retriever
// and gateway is optional; a nil cache or history store just disables that
// layer.
type Engine struct {
	retriever retriever
	builder   *prompt.Builder
	gateway   completionGateway
	responses *cache.ResponseCache
	history   historyStore
	opts      Options
	log       *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(r retriever, builder *prompt.Builder, gateway completionGateway,
	responses *cache.ResponseCache, history historyStore, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = 500
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 30 * time.Second
	}
	return &Engine{
		retriever: r,
		builder:   builder,
		gateway:   gateway,
		responses: responses,
		history:   history,
		opts:      opts,
		log:       log,
	}
}

// Answer runs the full pipeline for one query. Retrieval and generation
// failures are absorbed into user-facing text; only validation failures
// return an error.
func (e *Engine) Answer(ctx context.Context, q Query) (*Answer, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, &ValidationError{Field: "query", Reason: "query must not be empty"}
	}
	if utf8.RuneCountInString(text) > e.opts.MaxQueryLength {
		return nil, &ValidationError{Field: "query",
			Reason: fmt.Sprintf("query exceeds the %d character limit", e.opts.MaxQueryLength)}
	}

	window := e.window(ctx, q)
	cls := classify.Classify(text, len(window) > 0)

	if cls.IsGreeting {
		return e.respond(ctx, q, greetingMessage(q.Course), ""), nil
	}

	// A hit still records both turns; the cache only skips generation,
	// never the conversation bookkeeping.
	fingerprint := cache.Fingerprint(text, window)
	if cached, ok := e.responses.Get(fingerprint); ok {
		e.log.Debug("cache hit", zap.String("conversation", q.ConversationID))
		ans := e.respond(ctx, q, cached, "")
		ans.Cached = true
		return ans, nil
	}

	course := q.Course
	if q.AllCourses {
		course = ""
	}

	res, err := e.retriever.Retrieve(ctx, text, retrieval.Options{
		Course:      course,
		Source:      q.Source,
		CourseMeta:  cls.IsCourseMetaIntent,
		VideoIntent: cls.IsVideoIntent,
		TopK:        e.opts.TopK,
	})
	if err != nil {
		e.log.Error("retrieval failed", zap.Error(err))
		return e.respond(ctx, q, msgStoreUnavailable, ""), nil
	}

	switch res.Outcome {
	case retrieval.OutcomeCourseEmpty:
		return e.respond(ctx, q, msgCourseEmpty, ""), nil
	case retrieval.OutcomeNoCourseMatch:
		return e.respond(ctx, q, msgNoCourseMatch, ""), nil
	case retrieval.OutcomeNoVideoMatch:
		return e.respond(ctx, q, msgNoVideoMatch, ""), nil
	case retrieval.OutcomeTimeout:
		return e.respond(ctx, q, msgTookTooLong, ""), nil
	}

	if e.gateway.Degraded() {
		return e.respond(ctx, q, extractiveFallback(res.Chunks), ""), nil
	}

	built := e.builder.Build(text, res.Chunks, window, course, sourceIndicator(q, cls))

	genCtx, cancel := context.WithTimeout(ctx, e.opts.GenerationTimeout)
	defer cancel()

	resp, err := e.gateway.Complete(genCtx, llm.CompletionRequest{
		Model:    e.opts.Model,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: built}},
	})
	if err != nil {
		if isTimeout(err) {
			e.log.Warn("generation timed out", zap.String("conversation", q.ConversationID))
			return e.respond(ctx, q, msgTookTooLong, ""), nil
		}
		e.log.Warn("generation failed, using extractive fallback", zap.Error(err))
		return e.respond(ctx, q, extractiveFallback(res.Chunks), ""), nil
	}

	answer := e.respond(ctx, q, resp.Content, resp.Provider)
	e.responses.Put(fingerprint, resp.Content)
	return answer, nil
}

// window resolves the conversation window, preferring the caller-supplied
// turns over stored history.
func (e *Engine) window(ctx context.Context, q Query) []llm.Message {
	if len(q.History) > 0 {
		return q.History
	}
	if e.history == nil || q.ConversationID == "" {
		return nil
	}
	window, err := e.history.Window(ctx, q.ConversationID, e.builder.MaxTurns)
	if err != nil {
		e.log.Warn("loading conversation history", zap.Error(err))
		return nil
	}
	return window
}

// respond records the exchange in the conversation history and wraps the
// text in an Answer. History failures are logged, never surfaced.
func (e *Engine) respond(ctx context.Context, q Query, text, provider string) *Answer {
	if e.history != nil && q.ConversationID != "" {
		if err := e.history.AddTurn(ctx, q.ConversationID, llm.RoleUser, strings.TrimSpace(q.Text)); err != nil {
			e.log.Warn("recording user turn", zap.Error(err))
		}
		if err := e.history.AddTurn(ctx, q.ConversationID, llm.RoleAssistant, text); err != nil {
			e.log.Warn("recording assistant turn", zap.Error(err))
		}
	}
	return &Answer{Text: text, ConversationID: q.ConversationID, Provider: provider}
}

func sourceIndicator(q Query, cls classify.Classification) string {
	if q.Source == "youtube" || cls.IsVideoIntent {
		return "video"
	}
	if q.Source != "" {
		return q.Source
	}
	return ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var perr *llm.ProviderError
	return errors.As(err, &perr) && perr.Kind == llm.KindTimeout
}
