package services

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// IdempotencyTracker remembers the provider message ids that already got a reply
type IdempotencyTracker struct {
	seen *cache.Cache
}

// NewIdempotencyTracker keeps ids for ttl; expired entries are swept every hour
func NewIdempotencyTracker(ttl time.Duration) *IdempotencyTracker {
	sweep := time.Hour
	if ttl < sweep {
		sweep = ttl
	}
	return &IdempotencyTracker{seen: cache.New(ttl, sweep)}
}

// WasProcessed reports whether id was marked within the window. An empty id
// never counts as processed.
func (t *IdempotencyTracker) WasProcessed(id string) bool {
	if id == "" {
		return false
	}
	_, found := t.seen.Get(id)
	return found
}

// MarkProcessed records id with the time of first processing
func (t *IdempotencyTracker) MarkProcessed(id string) {
	if id == "" {
		return
	}
	_ = t.seen.Add(id, time.Now(), cache.DefaultExpiration)
}

// Len is the number of ids currently remembered
func (t *IdempotencyTracker) Len() int {
	return t.seen.ItemCount()
}
