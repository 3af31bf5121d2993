package document

import (
	"context"
	"time"

	"github.com/nabla-works/ragd/internal/domain"
)

// Repository persists document chunks in the vector index.
type Repository interface {
	Upsert(ctx context.Context, collection string, chunks []domain.Chunk, vectors [][]float32, uploadedAt time.Time) (int, error)
	Delete(ctx context.Context, collection, docID string) (int, error)
	List(ctx context.Context, collection string) ([]domain.DocumentInfo, error)
	Info(ctx context.Context, collection, docID string) (domain.DocumentInfo, error)
	FirstChunkVector(ctx context.Context, collection, docID string) ([]float32, error)
}

// SimilaritySearcher finds neighbors of a stored vector with the source
// document excluded.
type SimilaritySearcher interface {
	QueryExcluding(ctx context.Context, collection string, vector []float32, limit int, excludeDocumentID string) ([]domain.ScoredDocument, error)
}

// Embedder vectorizes chunk texts for storage.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Collections guarantees the target collection before writes and drops
// its cached info after them.
type Collections interface {
	Ensure(ctx context.Context, name string, dimension int) error
	Invalidate(name string)
}
