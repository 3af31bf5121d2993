package search

import (
	"context"

	"github.com/nabla-works/ragd/internal/domain"
)

// Repository runs nearest-neighbor queries against the vector index.
type Repository interface {
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredDocument, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ResultCache memoizes finished results keyed by query fingerprint.
type ResultCache interface {
	Get(key string) (domain.SearchResult, bool)
	Put(key string, res domain.SearchResult)
	Clear()
}
