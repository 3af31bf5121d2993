// Package search implements the retrieval pipeline: validate, consult the
// result cache, embed the query, run an oversampled index query, filter by
// score threshold, rank, and cache the outcome.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/cache"
	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/metrics"
)

// Options tunes the retrieval pipeline. Zero values fall back to the
// package defaults.
type Options struct {
	Collection       string
	ScoreThreshold   float64
	DefaultTopK      int
	MaxTopK          int
	OversampleFactor float64
}

const (
	defaultTopK             = 5
	defaultMaxTopK          = 20
	defaultOversampleFactor = 3.0
)

func (o Options) withDefaults() Options {
	if o.DefaultTopK <= 0 {
		o.DefaultTopK = defaultTopK
	}
	if o.MaxTopK <= 0 {
		o.MaxTopK = defaultMaxTopK
	}
	if o.OversampleFactor < 1 {
		o.OversampleFactor = defaultOversampleFactor
	}
	return o
}

// Service handles semantic retrieval over the document collection.
type Service struct {
	repo   Repository
	embed  Embedder
	cache  ResultCache
	opts   Options
	logger *zap.Logger

	// cacheEnabled gates hit/miss accounting so a disabled cache does not
	// report every search as a miss.
	cacheEnabled bool
}

// New creates a search service.
func New(repo Repository, embed Embedder, c ResultCache, opts Options, logger *zap.Logger) *Service {
	_, nop := c.(cache.Nop)
	return &Service{
		repo:         repo,
		embed:        embed,
		cache:        c,
		opts:         opts.withDefaults(),
		logger:       logger,
		cacheEnabled: !nop,
	}
}

// Search runs the full retrieval pipeline for one query.
func (s *Service) Search(ctx context.Context, q domain.Query) (domain.SearchResult, error) {
	collection := q.Collection
	if collection == "" {
		collection = s.opts.Collection
	}

	start := time.Now()
	res, err := s.run(ctx, collection, q)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(collection, status).Inc()
	metrics.SearchDuration.WithLabelValues(collection).Observe(duration.Seconds())
	if err == nil {
		metrics.SearchResultsReturned.Observe(float64(len(res.Documents)))
	}

	return res, err
}

// ClearCache drops every memoized result.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info("Search result cache cleared")
}

func (s *Service) run(ctx context.Context, collection string, q domain.Query) (domain.SearchResult, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return domain.SearchResult{}, &domain.SearchError{
			Stage: domain.StageValidate,
			Err:   domain.NewValidation("query", "must not be empty"),
		}
	}

	topK := q.TopK
	switch {
	case topK == 0:
		topK = s.opts.DefaultTopK
	case topK < 0:
		return domain.SearchResult{}, &domain.SearchError{
			Stage: domain.StageValidate,
			Err:   domain.NewValidation("top_k", "must be positive"),
		}
	case topK > s.opts.MaxTopK:
		return domain.SearchResult{}, &domain.SearchError{
			Stage: domain.StageValidate,
			Err:   domain.NewValidation("top_k", fmt.Sprintf("must not exceed %d", s.opts.MaxTopK)),
		}
	}

	threshold := s.opts.ScoreThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
		if threshold < 0 || threshold > 1 {
			return domain.SearchResult{}, &domain.SearchError{
				Stage: domain.StageValidate,
				Err:   domain.NewValidation("score_threshold", "must be between 0 and 1"),
			}
		}
	}

	trace := domain.Trace{AppliedThreshold: threshold}

	key := cache.Fingerprint(text, collection, topK, threshold)
	if cached, ok := s.cache.Get(key); ok {
		cached.Trace.CacheHit = true
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		s.logger.Debug("Search served from cache",
			zap.String("collection", collection),
			zap.Int("top_k", topK),
			zap.Int("results", len(cached.Documents)),
		)
		return cached, nil
	}
	if s.cacheEnabled {
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return domain.SearchResult{}, &domain.SearchError{Stage: domain.StageEmbed, Trace: trace, Err: err}
	}

	limit := oversampleLimit(topK, s.opts.OversampleFactor)
	trace.Limit = limit

	candidates, err := s.repo.Query(ctx, collection, emb.Embedding, limit)
	if err != nil {
		return domain.SearchResult{}, &domain.SearchError{Stage: domain.StageQuery, Trace: trace, Err: err}
	}

	trace.RawCandidates = len(candidates)
	if len(candidates) > 0 {
		trace.MinScore = candidates[0].Score
		trace.MaxScore = candidates[0].Score
		for _, d := range candidates[1:] {
			if d.Score < trace.MinScore {
				trace.MinScore = d.Score
			}
			if d.Score > trace.MaxScore {
				trace.MaxScore = d.Score
			}
		}
	}

	kept := make([]domain.ScoredDocument, 0, len(candidates))
	for _, d := range candidates {
		if d.Score >= threshold {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > topK {
		kept = kept[:topK]
	}
	for i := range kept {
		kept[i].Rank = i + 1
	}

	res := domain.SearchResult{Documents: kept, Trace: trace}

	// An empty result is cached too: "nothing matched" repeats like any
	// other answer while the corpus is unchanged.
	s.cache.Put(key, res)

	s.logger.Debug("Search completed",
		zap.String("collection", collection),
		zap.Int("top_k", topK),
		zap.Int("limit", limit),
		zap.Int("raw_candidates", trace.RawCandidates),
		zap.Int("returned", len(kept)),
		zap.Float64("threshold", threshold),
		zap.Float64("max_score", trace.MaxScore),
	)

	return res, nil
}

// oversampleLimit widens the index query so that threshold filtering
// still leaves top_k candidates to choose from.
func oversampleLimit(topK int, factor float64) int {
	limit := int(math.Ceil(float64(topK) * factor))
	if limit < topK {
		return topK
	}
	return limit
}
