package ragd

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	qdrantURL    string
	qdrantAPIKey string
	timeout      time.Duration

	provider     string // "voyage" or "openai"
	providerKey  string
	model        string
	dimensions   int
	embedder     Embedder // custom provider, overrides the built-ins
	embedderDims int

	chatKey         string
	chatModel       string
	chatTemperature float32
	chatMaxTokens   int

	collection       string
	scoreThreshold   float64
	defaultTopK      int
	maxTopK          int
	oversampleFactor float64

	cacheDisabled   bool
	cacheTTL        time.Duration
	cacheMaxEntries int

	chunkSize    int
	chunkOverlap int
	batchSize    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithQdrant sets the Qdrant base URL and API key (empty for unsecured
// instances). Required.
func WithQdrant(url, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.qdrantURL = url
		c.qdrantAPIKey = apiKey
	})
}

// WithTimeout bounds each Qdrant and embedding provider round-trip.
// Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithVoyage selects Voyage AI as the embedding provider
// (voyage-3-large, 1024 dimensions).
func WithVoyage(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "voyage"
		c.providerKey = apiKey
		c.model = "voyage-3-large"
		c.dimensions = 1024
	})
}

// WithOpenAIEmbeddings selects OpenAI as the embedding provider
// (text-embedding-3-small, 1536 dimensions).
func WithOpenAIEmbeddings(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "openai"
		c.providerKey = apiKey
		c.model = "text-embedding-3-small"
		c.dimensions = 1536
	})
}

// WithModel overrides the embedding model and vector dimension of the
// selected provider. Apply after WithVoyage or WithOpenAIEmbeddings.
func WithModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
		c.dimensions = dimensions
	})
}

// WithEmbedder sets a custom embedding provider producing vectors with the
// given dimension. Overrides WithVoyage and WithOpenAIEmbeddings.
func WithEmbedder(e Embedder, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.embedderDims = dimensions
	})
}

// WithChat enables answer generation through the OpenAI chat completion
// API. Without it, Chat().Ask returns an error.
func WithChat(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatKey = apiKey
		c.chatModel = model
	})
}

// WithChatTuning sets the sampling temperature and completion token limit
// for answer generation. Zero values keep the defaults (0.7, 2000).
func WithChatTuning(temperature float32, maxTokens int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatTemperature = temperature
		c.chatMaxTokens = maxTokens
	})
}

// WithCollection sets the collection every operation targets.
// Default: "labor_consultant_docs".
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithScoreThreshold sets the minimum similarity score a candidate needs
// to appear in results. Default: 0.3.
func WithScoreThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.scoreThreshold = t
	})
}

// WithTopK sets the default and maximum result counts.
// Defaults: 5 and 20.
func WithTopK(defaultK, maxK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = defaultK
		c.maxTopK = maxK
	})
}

// WithOversample sets the index query width multiplier applied before
// threshold filtering. Default: 3.
func WithOversample(factor float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.oversampleFactor = factor
	})
}

// WithoutCache disables the in-process result cache.
func WithoutCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDisabled = true
	})
}

// WithCache sizes the result cache. Defaults: 100 entries, 5 minutes.
func WithCache(maxEntries int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheMaxEntries = maxEntries
		c.cacheTTL = ttl
	})
}

// WithChunking sets the ingest splitter geometry.
// Defaults: size 1000, overlap 200, batch 100.
func WithChunking(size, overlap, batchSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
		c.batchSize = batchSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
