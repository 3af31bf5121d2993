package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/metrics"
)

const (
	providerName   = "voyage"
	defaultBaseURL = "https://api.voyageai.com/v1"
	defaultTimeout = 30 * time.Second
)

// Input types change how Voyage embeds the text. Queries and stored
// documents get asymmetric vectors tuned for retrieval.
const (
	InputTypeQuery    = "query"
	InputTypeDocument = "document"
)

// Embedder is the primary embedding provider using the Voyage AI API.
type Embedder struct {
	apiKey    string
	baseURL   string
	model     string
	inputType string
	client    *http.Client
	logger    *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	InputType string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewEmbedder creates a Voyage AI embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Embedder{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		model:     cfg.Model,
		inputType: cfg.InputType,
		client:    &http.Client{Timeout: timeout},
		logger:    cfg.Logger,
	}
}

type embeddingRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.embed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:   res.Embeddings[0],
		TotalTokens: res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder. One API call for the whole batch.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	return e.embed(ctx, texts)
}

func (e *Embedder) embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	body, err := json.Marshal(embeddingRequest{
		Input:     texts,
		Model:     e.model,
		InputType: e.inputType,
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	start := time.Now()

	resp, err := e.client.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "transport").Inc()
		return domain.BatchEmbeddingResult{}, domain.NewEmbeddingError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "api_error").Inc()
		return domain.BatchEmbeddingResult{}, domain.NewEmbeddingError(providerName,
			fmt.Errorf("api error %d: %s", resp.StatusCode, errorDetail(resp.Body)))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "decode").Inc()
		return domain.BatchEmbeddingResult{}, domain.NewEmbeddingError(providerName, fmt.Errorf("decode response: %w", err))
	}

	if len(result.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, domain.NewEmbeddingError(providerName,
			fmt.Errorf("embedding count mismatch: got %d, want %d", len(result.Data), len(texts)))
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())

	totalTokens := result.Usage.TotalTokens
	if totalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(providerName, e.model, "total").Add(float64(totalTokens))
	}

	// The API may return entries out of order; restore by index.
	embeddings := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return domain.BatchEmbeddingResult{}, domain.NewEmbeddingError(providerName,
				fmt.Errorf("embedding index %d out of range", d.Index))
		}
		embeddings[d.Index] = d.Embedding
	}

	return domain.BatchEmbeddingResult{
		Embeddings:  embeddings,
		TotalTokens: totalTokens,
	}, nil
}

// HealthCheck verifies API availability with a minimal embed request.
// Voyage has no free list endpoint; this costs one token.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.embed(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("health embed: %w", err)
	}
	return nil
}

// errorDetail extracts the "detail" field Voyage returns on errors.
func errorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 32<<10))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return string(bytes.TrimSpace(raw))
}
