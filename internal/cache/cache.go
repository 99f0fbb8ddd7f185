// Package cache memoizes orchestrator responses keyed by a stable
// fingerprint of the query and its conversation window. The cache is purely
// an optimization: a nil *ResponseCache behaves like a permanent miss.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ziadkadry99/lmsbot/internal/llm"
)

// ResponseCache is a bounded TTL cache. When the entry count would exceed
// the bound the cache is flushed wholesale instead of evicting one entry, so
// callers must never assume an entry survives.
type ResponseCache struct {
	c          *gocache.Cache
	maxEntries int
}

// New creates a response cache with the given TTL and entry bound.
func New(ttl time.Duration, maxEntries int) *ResponseCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &ResponseCache{
		c:          gocache.New(ttl, ttl/2),
		maxEntries: maxEntries,
	}
}

// Fingerprint derives a stable cache key from the normalized query text and
// the serialized conversation window.
func Fingerprint(query string, window []llm.Message) string {
	h := sha256.New()
	h.Write([]byte(normalize(query)))
	for _, turn := range window {
		h.Write([]byte{0})
		h.Write([]byte(turn.Role))
		h.Write([]byte{0})
		h.Write([]byte(turn.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Get returns the cached response for the fingerprint, if present.
func (rc *ResponseCache) Get(fingerprint string) (string, bool) {
	if rc == nil {
		return "", false
	}
	if v, ok := rc.c.Get(fingerprint); ok {
		return v.(string), true
	}
	return "", false
}

// Put stores a response under the fingerprint with the default TTL.
func (rc *ResponseCache) Put(fingerprint, response string) {
	if rc == nil {
		return
	}
	if rc.c.ItemCount() >= rc.maxEntries {
		rc.c.Flush()
	}
	rc.c.Set(fingerprint, response, gocache.DefaultExpiration)
}

// Clear drops every cached response.
func (rc *ResponseCache) Clear() {
	if rc == nil {
		return
	}
	rc.c.Flush()
}

// Len returns the current entry count, counting not-yet-purged expired entries.
func (rc *ResponseCache) Len() int {
	if rc == nil {
		return 0
	}
	return rc.c.ItemCount()
}
