package ragd

import (
	"context"
	"time"

	"github.com/nabla-works/ragd/internal/domain"
)

// SearchRequest is one retrieval request. Zero TopK uses the configured
// default; a nil ScoreThreshold uses the configured threshold.
type SearchRequest struct {
	Text           string
	TopK           int
	ScoreThreshold *float64
}

// SearchService runs semantic retrieval over the collection.
type SearchService struct {
	svc searchUseCase
	obs *observer
}

// Search embeds the query, retrieves candidates and returns the
// threshold-filtered, rank-ordered result set. An empty result is a
// success, not an error; the Trace says what the index actually returned.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (res SearchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", start, err) }()

	result, err := s.svc.Search(ctx, domain.Query{
		Text:      req.Text,
		TopK:      req.TopK,
		Threshold: req.ScoreThreshold,
	})
	if err != nil {
		return SearchResult{}, err
	}

	return SearchResult{
		Documents: docsFromDomain(result.Documents),
		Trace:     traceFromDomain(result.Trace),
	}, nil
}
