package ai

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"offerte-service/internal/offerte/model"
)

// responseCache keeps suggestions per (werkzaamheid, candidate set) so
// re-asking for the same match costs nothing. Entries expire after the TTL;
// expired entries are dropped lazily on access.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cachedSuggestion
}

type cachedSuggestion struct {
	suggestion Suggestion
	expires    time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cachedSuggestion),
	}
}

func cacheKey(item model.WorkItem, candidates []model.CatalogEntry) string {
	var b strings.Builder
	b.WriteString(item.Description)
	b.WriteByte('|')
	b.WriteString(item.Unit)
	for _, c := range candidates {
		b.WriteByte('|')
		b.WriteString(c.Code)
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (c *responseCache) get(key string) (*Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	sug := e.suggestion
	return &sug, true
}

func (c *responseCache) put(key string, sug *Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedSuggestion{suggestion: *sug, expires: time.Now().Add(c.ttl)}
}

func (c *responseCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedSuggestion)
}
