package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nabla-works/ragd/internal/domain"
)

// Results is an in-process cache of search results keyed by request
// fingerprint. Entries expire after the TTL; the oldest entry is
// evicted when the cache is full. Empty results are cached like any
// other: "nothing matched" is a valid, repeatable answer.
type Results struct {
	lru *expirable.LRU[string, domain.SearchResult]
}

// NewResults creates a result cache holding up to maxEntries entries for ttl.
func NewResults(maxEntries int, ttl time.Duration) *Results {
	return &Results{
		lru: expirable.NewLRU[string, domain.SearchResult](maxEntries, nil, ttl),
	}
}

// Get returns the cached result for key. Expired entries miss.
func (c *Results) Get(key string) (domain.SearchResult, bool) {
	return c.lru.Get(key)
}

// Put stores a result under key.
func (c *Results) Put(key string, res domain.SearchResult) {
	c.lru.Add(key, res)
}

// Clear drops all entries.
func (c *Results) Clear() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Results) Len() int {
	return c.lru.Len()
}
