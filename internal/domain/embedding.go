package domain

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// maxFallbackConcurrency bounds concurrent per-text calls in BatchFallback.
const maxFallbackConcurrency = 4

// BatchFallback calls Embed per text for providers without a native batch
// endpoint. Calls run concurrently with a small bound; embeddings keep the
// input order.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return BatchEmbeddingResult{}, nil
	}

	results := make([]EmbeddingResult, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFallbackConcurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			res, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("fallback embed [%d]: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchEmbeddingResult{}, err
	}

	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, res := range results {
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}
