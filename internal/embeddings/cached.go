package embeddings

import (
	"context"
	"sync"
)

// Cached wraps an Embedder with a bounded in-memory cache. When the cache
// fills up it is cleared entirely rather than evicting individual entries;
// callers must not assume an embedding survives between calls.
type Cached struct {
	inner      Embedder
	maxEntries int

	mu      sync.Mutex
	entries map[string][]float32
}

// NewCached wraps the given embedder with a cache holding at most maxEntries
// vectors.
func NewCached(inner Embedder, maxEntries int) *Cached {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cached{
		inner:      inner,
		maxEntries: maxEntries,
		entries:    make(map[string][]float32),
	}
}

func (c *Cached) Name() string {
	return c.inner.Name()
}

func (c *Cached) Dimensions() int {
	return c.inner.Dimensions()
}

// Embed serves cached vectors where possible and fetches the rest in a
// single call to the wrapped embedder.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	c.mu.Lock()
	for i, text := range texts {
		if emb, ok := c.entries[text]; ok {
			results[i] = emb
		} else {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return results, nil
	}

	fetched, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for j, emb := range fetched {
		if len(c.entries) >= c.maxEntries {
			c.entries = make(map[string][]float32)
		}
		c.entries[missing[j]] = emb
		results[missingIdx[j]] = emb
	}
	c.mu.Unlock()

	return results, nil
}

// Clear drops every cached embedding.
func (c *Cached) Clear() {
	c.mu.Lock()
	c.entries = make(map[string][]float32)
	c.mu.Unlock()
}

// Len returns the number of cached embeddings.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
