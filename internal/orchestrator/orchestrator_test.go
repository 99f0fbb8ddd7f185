package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/lmsbot/internal/cache"
	"github.com/ziadkadry99/lmsbot/internal/db"
	"github.com/ziadkadry99/lmsbot/internal/history"
	"github.com/ziadkadry99/lmsbot/internal/llm"
	"github.com/ziadkadry99/lmsbot/internal/prompt"
	"github.com/ziadkadry99/lmsbot/internal/retrieval"
)

type fakeRetriever struct {
	result *retrieval.Result
	err    error
	calls  int
	opts   retrieval.Options
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, opts retrieval.Options) (*retrieval.Result, error) {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGateway struct {
	response string
	err      error
	degraded bool
	calls    int
	lastReq  llm.CompletionRequest
}

func (f *fakeGateway) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.response, Provider: "fake"}, nil
}

func (f *fakeGateway) Degraded() bool { return f.degraded }

func biologyChunks() []retrieval.Chunk {
	return []retrieval.Chunk{
		{Text: "Photosynthesis converts light into chemical energy. It happens in chloroplasts. Oxygen is released.", Score: 0.9, Course: "Biology101"},
		{Text: "Cell walls provide structure to plant cells.", Score: 0.4, Course: "Biology101"},
	}
}

func newTestEngine(r retriever, g completionGateway, responses *cache.ResponseCache, h historyStore) *Engine {
	return NewEngine(r, prompt.NewBuilder(1, 2, 500), g, responses, h, Options{
		MaxQueryLength:    500,
		Model:             "test-model",
		TopK:              5,
		GenerationTimeout: time.Second,
	}, nil)
}

func TestAnswerValidation(t *testing.T) {
	ret := &fakeRetriever{}
	gw := &fakeGateway{}
	engine := newTestEngine(ret, gw, nil, nil)

	for _, text := range []string{"", "   ", strings.Repeat("x", 501)} {
		_, err := engine.Answer(context.Background(), Query{Text: text})
		if !IsValidation(err) {
			t.Errorf("Answer(%d chars) err = %v, want ValidationError", len(text), err)
		}
	}
	if ret.calls != 0 || gw.calls != 0 {
		t.Errorf("invalid input reached downstream: retriever=%d gateway=%d", ret.calls, gw.calls)
	}
}

func TestAnswerValidationCountsRunes(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	engine := newTestEngine(ret, &fakeGateway{response: "ok"}, nil, nil)

	// 500 two-byte runes fit the limit even though the byte length is 1000.
	if _, err := engine.Answer(context.Background(), Query{Text: strings.Repeat("é", 500)}); err != nil {
		t.Errorf("500-rune query rejected: %v", err)
	}
	if _, err := engine.Answer(context.Background(), Query{Text: strings.Repeat("é", 501)}); !IsValidation(err) {
		t.Errorf("501-rune query err = %v, want ValidationError", err)
	}
}

func TestAnswerGreeting(t *testing.T) {
	ret := &fakeRetriever{}
	gw := &fakeGateway{}
	engine := newTestEngine(ret, gw, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{Text: "hello there", Course: "Biology101"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(ans.Text, "Biology101") {
		t.Errorf("greeting not course scoped: %q", ans.Text)
	}
	if ret.calls != 0 || gw.calls != 0 {
		t.Error("greeting triggered retrieval or generation")
	}
}

func TestAnswerGreetingWithHistoryIsNotCanned(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	gw := &fakeGateway{response: "a real answer"}
	engine := newTestEngine(ret, gw, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{
		Text:    "hello",
		History: []llm.Message{{Role: llm.RoleUser, Content: "what is photosynthesis?"}},
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ret.calls == 0 {
		t.Error("follow-up greeting skipped retrieval")
	}
	if ans.Text != "a real answer" {
		t.Errorf("got %q", ans.Text)
	}
}

func TestAnswerEndToEnd(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	gw := &fakeGateway{response: "Photosynthesis is how plants make food from light."}
	engine := newTestEngine(ret, gw, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{Text: "What is photosynthesis?", Course: "Biology101"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ans.Text != gw.response {
		t.Errorf("generation output modified: %q", ans.Text)
	}
	if ans.Provider != "fake" {
		t.Errorf("Provider = %q", ans.Provider)
	}
	if ret.opts.Course != "Biology101" || ret.opts.TopK != 5 {
		t.Errorf("retrieval options: %+v", ret.opts)
	}

	built := gw.lastReq.Messages[0].Content
	if !strings.Contains(built, "Photosynthesis converts light") {
		t.Error("top chunk missing from prompt")
	}
	if strings.Contains(built, "Cell walls") {
		t.Error("second chunk included past the 1-chunk limit")
	}
	if !strings.Contains(built, `course "Biology101"`) {
		t.Error("course scoping clause missing from prompt")
	}
}

func TestAnswerOutcomeMessages(t *testing.T) {
	tests := []struct {
		outcome retrieval.Outcome
		want    string
	}{
		{retrieval.OutcomeCourseEmpty, msgCourseEmpty},
		{retrieval.OutcomeNoCourseMatch, msgNoCourseMatch},
		{retrieval.OutcomeNoVideoMatch, msgNoVideoMatch},
		{retrieval.OutcomeTimeout, msgTookTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			gw := &fakeGateway{}
			engine := newTestEngine(&fakeRetriever{result: &retrieval.Result{Outcome: tt.outcome}}, gw, nil, nil)

			ans, err := engine.Answer(context.Background(), Query{Text: "what is osmosis?", Course: "Biology101"})
			if err != nil {
				t.Fatalf("Answer: %v", err)
			}
			if ans.Text != tt.want {
				t.Errorf("got %q, want %q", ans.Text, tt.want)
			}
			if gw.calls != 0 {
				t.Error("terminal retrieval outcome still called generation")
			}
		})
	}
}

func TestAnswerRetrievalErrorIsAbsorbed(t *testing.T) {
	engine := newTestEngine(&fakeRetriever{err: context.Canceled}, &fakeGateway{}, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{Text: "what is osmosis?"})
	if err != nil {
		t.Fatalf("retrieval failure surfaced as error: %v", err)
	}
	if ans.Text != msgStoreUnavailable {
		t.Errorf("got %q", ans.Text)
	}
}

func TestAnswerGenerationFailureFallsBackToExtract(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	gw := &fakeGateway{err: &llm.ProviderError{Provider: "openai", Kind: llm.KindUnavailable}}
	engine := newTestEngine(ret, gw, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{Text: "What is photosynthesis?"})
	if err != nil {
		t.Fatalf("generation failure surfaced as error: %v", err)
	}
	if !strings.Contains(ans.Text, "lightweight mode") {
		t.Errorf("missing degraded-mode disclaimer: %q", ans.Text)
	}
	if !strings.Contains(ans.Text, "Photosynthesis converts light") {
		t.Errorf("top chunk missing from extractive answer: %q", ans.Text)
	}
}

func TestAnswerGenerationTimeout(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	gw := &fakeGateway{err: &llm.ProviderError{Provider: "openai", Kind: llm.KindTimeout}}
	engine := newTestEngine(ret, gw, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{Text: "What is photosynthesis?"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ans.Text != msgTookTooLong {
		t.Errorf("got %q", ans.Text)
	}
}

func TestAnswerDegradedSkipsGeneration(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	gw := &fakeGateway{degraded: true}
	engine := newTestEngine(ret, gw, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{Text: "What is photosynthesis?"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if gw.calls != 0 {
		t.Error("degraded gateway still received a completion call")
	}
	if !strings.Contains(ans.Text, "lightweight mode") {
		t.Errorf("got %q", ans.Text)
	}
}

func TestAnswerDegradedWithoutChunks(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK}}
	engine := newTestEngine(ret, &fakeGateway{degraded: true}, nil, nil)

	ans, err := engine.Answer(context.Background(), Query{Text: "what is dark matter?"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ans.Text != msgNothingHelpful {
		t.Errorf("got %q", ans.Text)
	}
}

func TestAnswerCacheRoundTrip(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	gw := &fakeGateway{response: "cached answer"}
	responses := cache.New(time.Minute, 100)
	engine := newTestEngine(ret, gw, responses, nil)

	first, err := engine.Answer(context.Background(), Query{Text: "What is photosynthesis?"})
	if err != nil {
		t.Fatalf("first Answer: %v", err)
	}
	if first.Cached {
		t.Error("first answer marked cached")
	}

	second, err := engine.Answer(context.Background(), Query{Text: "what IS  photosynthesis?"})
	if err != nil {
		t.Fatalf("second Answer: %v", err)
	}
	if !second.Cached || second.Text != "cached answer" {
		t.Errorf("second answer not served from cache: %+v", second)
	}
	if gw.calls != 1 {
		t.Errorf("gateway called %d times, want 1", gw.calls)
	}
}

func TestAnswerCacheHitStillRecordsHistory(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer database.Close()
	store := history.NewStore(database)

	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	gw := &fakeGateway{response: "cached answer"}
	engine := newTestEngine(ret, gw, cache.New(time.Minute, 100), store)

	// A fixed caller-supplied window keeps the fingerprint stable across
	// both calls even as the stored history grows.
	q := Query{
		Text:           "What is photosynthesis?",
		ConversationID: "conv-hit",
		History:        []llm.Message{{Role: llm.RoleUser, Content: "earlier question"}},
	}

	if _, err := engine.Answer(context.Background(), q); err != nil {
		t.Fatalf("first Answer: %v", err)
	}
	second, err := engine.Answer(context.Background(), q)
	if err != nil {
		t.Fatalf("second Answer: %v", err)
	}
	if !second.Cached {
		t.Fatal("second answer not served from cache")
	}
	if gw.calls != 1 {
		t.Fatalf("gateway called %d times, want 1", gw.calls)
	}

	window, err := store.Window(context.Background(), "conv-hit", 10)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(window) != 4 {
		t.Fatalf("window length = %d, want 4", len(window))
	}
	if window[3].Role != llm.RoleAssistant || window[3].Content != "cached answer" {
		t.Errorf("cached turn not recorded: %+v", window[3])
	}
}

func TestAnswerAllCoursesUnbindsCourse(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	engine := newTestEngine(ret, &fakeGateway{response: "ok"}, nil, nil)

	if _, err := engine.Answer(context.Background(), Query{
		Text: "What is photosynthesis?", Course: "Biology101", AllCourses: true,
	}); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ret.opts.Course != "" {
		t.Errorf("all-courses query still course filtered: %q", ret.opts.Course)
	}
}

func TestAnswerRecordsHistory(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer database.Close()
	store := history.NewStore(database)

	ret := &fakeRetriever{result: &retrieval.Result{Outcome: retrieval.OutcomeOK, Chunks: biologyChunks()}}
	engine := newTestEngine(ret, &fakeGateway{response: "an answer"}, nil, store)

	if _, err := engine.Answer(context.Background(), Query{
		Text: "What is photosynthesis?", ConversationID: "conv-1",
	}); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	window, err := store.Window(context.Background(), "conv-1", 10)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("window length = %d, want 2", len(window))
	}
	if window[0].Role != llm.RoleUser || window[1].Role != llm.RoleAssistant {
		t.Errorf("turn roles wrong: %+v", window)
	}
	if window[1].Content != "an answer" {
		t.Errorf("assistant turn = %q", window[1].Content)
	}
}
