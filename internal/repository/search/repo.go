package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/index"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Query(ctx context.Context, collection string, q *index.VectorQuery) ([]index.ScoredPoint, error)
}

// Repo implements usecase/search.Repository over the vector index.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Query runs a nearest-neighbor search and converts hits into scored
// documents, ordered by descending similarity as the index returns
// them. No score filtering happens here.
func (r *Repo) Query(ctx context.Context, collection string, vector []float32, limit int) ([]domain.ScoredDocument, error) {
	hits, err := r.store.Query(ctx, collection, &index.VectorQuery{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	})
	if err != nil {
		return nil, translate("query", collection, err)
	}

	docs := make([]domain.ScoredDocument, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, fromPoint(hit))
	}
	return docs, nil
}

// QueryExcluding is Query with one document filtered out server-side.
// Similar-document search uses it so a document never matches itself.
func (r *Repo) QueryExcluding(ctx context.Context, collection string, vector []float32, limit int, excludeDocumentID string) ([]domain.ScoredDocument, error) {
	hits, err := r.store.Query(ctx, collection, &index.VectorQuery{
		Vector:      vector,
		Limit:       limit,
		Filter:      &index.Filter{MustNot: []index.Match{{Key: "document_id", Value: excludeDocumentID}}},
		WithPayload: true,
	})
	if err != nil {
		return nil, translate("query", collection, err)
	}

	docs := make([]domain.ScoredDocument, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, fromPoint(hit))
	}
	return docs, nil
}

// translate maps index sentinels onto domain sentinels so callers
// never import the index package.
func translate(op, collection string, err error) error {
	switch {
	case errors.Is(err, index.ErrCollectionNotFound):
		return fmt.Errorf("%s %s: %w", op, collection, domain.ErrCollectionNotFound)
	case errors.Is(err, index.ErrUnavailable):
		return fmt.Errorf("%s %s: %v: %w", op, collection, err, domain.ErrIndexUnavailable)
	default:
		return fmt.Errorf("%s %s: %w", op, collection, err)
	}
}

// fromPoint converts an index hit into a scored document.
// Rank stays zero; the search service assigns it after filtering.
func fromPoint(p index.ScoredPoint) domain.ScoredDocument {
	doc := domain.ScoredDocument{ID: p.ID, Score: p.Score}
	if len(p.Payload) == 0 {
		return doc
	}

	if s, ok := p.Payload["content"].(string); ok {
		doc.Content = s
	} else if s, ok := p.Payload["text"].(string); ok {
		doc.Content = s
	}
	if s, ok := p.Payload["title"].(string); ok {
		doc.Title = s
	}

	meta := make(map[string]any, len(p.Payload))
	for k, v := range p.Payload {
		switch k {
		case "content", "text", "title":
			// surfaced as dedicated fields
		default:
			meta[k] = v
		}
	}
	if len(meta) > 0 {
		doc.Metadata = meta
	}
	return doc
}
