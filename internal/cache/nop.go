package cache

import "github.com/nabla-works/ragd/internal/domain"

// Nop is the disabled result cache: every lookup misses and writes are
// dropped. Wired in when caching is turned off so the search pipeline
// never branches on a nil cache.
type Nop struct{}

// Get always misses.
func (Nop) Get(string) (domain.SearchResult, bool) { return domain.SearchResult{}, false }

// Put drops the result.
func (Nop) Put(string, domain.SearchResult) {}

// Clear does nothing.
func (Nop) Clear() {}
