// Package retrieval wraps the vector store with a filter-relaxation cascade:
// progressively less restrictive filters are tried until one yields results
// or a terminal condition says relaxing further would be misleading.
package retrieval

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/vectordb"
)

// Retriever runs the cascade against an injected vector store.
type Retriever struct {
	store       vectordb.VectorStore
	budget      time.Duration
	chunkBudget int
	log         *zap.Logger
}

// New creates a Retriever. budget bounds the whole cascade; chunkBudget caps
// each returned chunk's text.
func New(store vectordb.VectorStore, budget time.Duration, chunkBudget int, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	if budget <= 0 {
		budget = 10 * time.Second
	}
	if chunkBudget <= 0 {
		chunkBudget = 1000
	}
	return &Retriever{store: store, budget: budget, chunkBudget: chunkBudget, log: log}
}

// Retrieve runs the filter cascade:
//
//  1. Search with every given filter (course + source).
//  2. If empty and a course was given, probe the course alone with topK=1.
//     An empty probe means the course has no materials at all; terminal.
//  3. If the empty result came from a course-meta or video question, stop
//     with an intent-specific outcome instead of relaxing across scopes.
//  4. Otherwise drop the source filter and retry with the course alone.
//
// The whole cascade shares one wall-clock budget; blowing it yields
// OutcomeTimeout no matter which step was running.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	full := &vectordb.SearchFilter{
		Course: opts.Course,
		Source: vectordb.SourceType(opts.Source),
	}

	chunks, res, err := r.search(ctx, query, topK, full)
	if res != nil || err != nil {
		return res, err
	}
	if len(chunks) > 0 {
		return &Result{Chunks: chunks, Outcome: OutcomeOK}, nil
	}

	// Distinguish "course has no documents" from "course has documents but
	// none match" before deciding whether relaxing makes sense.
	if opts.Course != "" {
		probe, res, err := r.search(ctx, query, 1, &vectordb.SearchFilter{Course: opts.Course})
		if res != nil || err != nil {
			return res, err
		}
		if len(probe) == 0 {
			r.log.Debug("course has no materials", zap.String("course", opts.Course))
			return &Result{Outcome: OutcomeCourseEmpty}, nil
		}
	}

	// Course- and video-scoped questions must not leak answers from other
	// scopes, so their empty results are terminal too.
	if opts.CourseMeta {
		return &Result{Outcome: OutcomeNoCourseMatch}, nil
	}
	if opts.VideoIntent {
		return &Result{Outcome: OutcomeNoVideoMatch}, nil
	}

	// Relax: drop the source filter, keep the course.
	if opts.Source != "" {
		chunks, res, err = r.search(ctx, query, topK, &vectordb.SearchFilter{Course: opts.Course})
		if res != nil || err != nil {
			return res, err
		}
	}

	return &Result{Chunks: chunks, Outcome: OutcomeOK}, nil
}

// search performs one store query, translating deadline expiry into a
// timeout Result and truncating chunk text to the configured budget.
func (r *Retriever) search(ctx context.Context, query string, topK int, filter *vectordb.SearchFilter) ([]Chunk, *Result, error) {
	if ctx.Err() != nil {
		return nil, &Result{Outcome: OutcomeTimeout}, nil
	}

	results, err := r.store.Search(ctx, query, topK, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, &Result{Outcome: OutcomeTimeout}, nil
		}
		return nil, nil, err
	}

	chunks := make([]Chunk, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, Chunk{
			Text:   truncate(res.Document.Content, r.chunkBudget),
			Score:  res.Similarity,
			Course: res.Document.Metadata.Course,
			Source: string(res.Document.Metadata.Source),
			Title:  res.Document.Metadata.Title,
			URL:    res.Document.Metadata.URL,
		})
	}
	return chunks, nil, nil
}

// truncate caps text at limit runes without splitting a multi-byte character.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
