package ragd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/cache"
	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/index"
	"github.com/nabla-works/ragd/internal/index/qdrant"
	collectionrepo "github.com/nabla-works/ragd/internal/repository/collection"
	documentrepo "github.com/nabla-works/ragd/internal/repository/document"
	searchrepo "github.com/nabla-works/ragd/internal/repository/search"
	openaiTransport "github.com/nabla-works/ragd/internal/transport/openai"
	"github.com/nabla-works/ragd/internal/transport/voyage"
	chatuc "github.com/nabla-works/ragd/internal/usecase/chat"
	collectionuc "github.com/nabla-works/ragd/internal/usecase/collection"
	documentuc "github.com/nabla-works/ragd/internal/usecase/document"
	healthuc "github.com/nabla-works/ragd/internal/usecase/health"
	searchuc "github.com/nabla-works/ragd/internal/usecase/search"
)

const (
	defaultReadinessTimeout  = 10 * time.Second
	defaultCollection        = "labor_consultant_docs"
	defaultScoreThreshold    = 0.3
	defaultCacheEntries      = 100
	defaultCacheTTL          = 5 * time.Minute
	defaultCollectionInfoTTL = 5 * time.Minute
)

// Internal interfaces for test substitution.
type searchUseCase interface {
	Search(ctx context.Context, q domain.Query) (domain.SearchResult, error)
	ClearCache()
}

type chatUseCase interface {
	Answer(ctx context.Context, req chatuc.Request) (domain.Answer, error)
	AnswerStream(ctx context.Context, req chatuc.Request, fn func(delta string) error) (domain.Answer, error)
}

type documentUseCase interface {
	Upload(ctx context.Context, req documentuc.UploadRequest) (documentuc.UploadResult, error)
	UploadBatch(ctx context.Context, docs []documentuc.UploadRequest, collection string) (documentuc.BatchResult, error)
	Delete(ctx context.Context, collection, docID string) (int, error)
	List(ctx context.Context, collection string) ([]domain.DocumentInfo, error)
	Info(ctx context.Context, collection, docID string) (domain.DocumentInfo, error)
	Similar(ctx context.Context, collection, docID string, topK int) ([]domain.ScoredDocument, error)
}

type collectionUseCase interface {
	EnsureDefault(ctx context.Context) error
	Info(ctx context.Context, name string) (domain.CollectionInfo, error)
	Infos(ctx context.Context) ([]domain.CollectionInfo, int, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the ragd SDK entry point.
type Client struct {
	store     index.Store
	searchSvc searchUseCase
	chatSvc   chatUseCase
	docSvc    documentUseCase
	collSvc   collectionUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a ragd Client and connects to the vector index.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		collection:     defaultCollection,
		scoreThreshold: defaultScoreThreshold,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.qdrantURL == "" {
		return nil, errors.New("ragd: qdrant address required (use WithQdrant)")
	}
	if cfg.embedder == nil && cfg.providerKey == "" {
		return nil, errors.New("ragd: embedding provider required (use WithVoyage, WithOpenAIEmbeddings or WithEmbedder)")
	}

	store, err := qdrant.NewStore(qdrant.Config{
		URL:     cfg.qdrantURL,
		APIKey:  cfg.qdrantAPIKey,
		Timeout: cfg.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ragd: create qdrant store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ragd: vector index not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store index.Store, cfg *clientConfig, obs *observer) *Client {
	// Internal services log through zap; the SDK observes through slog, so
	// the inner logger stays silent.
	logger := zap.NewNop()

	queryEmbedder, docEmbedder, dimensions := buildEmbedders(cfg, logger)

	var resultCache searchuc.ResultCache = cache.Nop{}
	if !cfg.cacheDisabled {
		entries := cfg.cacheMaxEntries
		if entries <= 0 {
			entries = defaultCacheEntries
		}
		ttl := cfg.cacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		resultCache = cache.NewResults(entries, ttl)
	}

	collRepo := collectionrepo.New(store, defaultCollectionInfoTTL)
	docRepo := documentrepo.New(store)
	searchRepo := searchrepo.New(store)

	searchSvc := searchuc.New(searchRepo, queryEmbedder, resultCache, searchuc.Options{
		Collection:       cfg.collection,
		ScoreThreshold:   cfg.scoreThreshold,
		DefaultTopK:      cfg.defaultTopK,
		MaxTopK:          cfg.maxTopK,
		OversampleFactor: cfg.oversampleFactor,
	}, logger)

	var chatSvc chatUseCase
	if cfg.chatKey != "" {
		llm := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
			APIKey:      cfg.chatKey,
			Model:       cfg.chatModel,
			Temperature: cfg.chatTemperature,
			MaxTokens:   cfg.chatMaxTokens,
			Logger:      logger,
		})
		chatSvc = chatuc.New(searchSvc, llm, 0, logger)
	}

	docSvc := documentuc.New(docRepo, collRepo, searchRepo, docEmbedder, documentuc.Options{
		Collection:     cfg.collection,
		Dimension:      dimensions,
		ChunkSize:      cfg.chunkSize,
		ChunkOverlap:   cfg.chunkOverlap,
		BatchSize:      cfg.batchSize,
		ScoreThreshold: cfg.scoreThreshold,
	}, logger)

	collSvc := collectionuc.New(collRepo, cfg.collection, dimensions)
	healthSvc := healthuc.New(store, collRepo)

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		chatSvc:   chatSvc,
		docSvc:    docSvc,
		collSvc:   collSvc,
		healthSvc: healthSvc,
		obs:       obs,
	}
}

// providerEmbedder is the full provider surface the wired services need:
// single-text embedding for queries, batch embedding for ingestion.
type providerEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

var (
	_ providerEmbedder = (*voyage.Embedder)(nil)
	_ providerEmbedder = (*openaiTransport.Embedder)(nil)
	_ providerEmbedder = (*embedderAdapter)(nil)
)

// buildEmbedders returns the query-side and document-side embedders plus
// the vector dimension they produce.
func buildEmbedders(cfg *clientConfig, logger *zap.Logger) (providerEmbedder, providerEmbedder, int) {
	if cfg.embedder != nil {
		a := &embedderAdapter{inner: cfg.embedder}
		return a, a, cfg.embedderDims
	}

	if cfg.provider == "voyage" {
		query := voyage.NewEmbedder(&voyage.Config{
			APIKey:    cfg.providerKey,
			Model:     cfg.model,
			InputType: voyage.InputTypeQuery,
			Timeout:   cfg.timeout,
			Logger:    logger,
		})
		doc := voyage.NewEmbedder(&voyage.Config{
			APIKey:    cfg.providerKey,
			Model:     cfg.model,
			InputType: voyage.InputTypeDocument,
			Timeout:   cfg.timeout,
			Logger:    logger,
		})
		return query, doc, cfg.dimensions
	}

	// OpenAI embeds queries and documents symmetrically.
	e := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.providerKey,
		Model:      cfg.model,
		Dimensions: cfg.dimensions,
		Logger:     logger,
	})
	return e, e, cfg.dimensions
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks vector index connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureCollection creates the configured collection when missing. Call
// once before the first upload against a fresh index.
func (c *Client) EnsureCollection(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_collection", start, err) }()

	return c.collSvc.EnsureDefault(ctx)
}

// ClearCache drops every memoized search result.
func (c *Client) ClearCache() {
	c.searchSvc.ClearCache()
}

// Search returns the retrieval service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc, obs: c.obs}
}

// Chat returns the answer generation service.
func (c *Client) Chat() *ChatService {
	return &ChatService{svc: c.chatSvc, obs: c.obs}
}

// Documents returns the document ingest and lookup service.
func (c *Client) Documents() *DocumentService {
	return &DocumentService{svc: c.docSvc, obs: c.obs}
}

// Collections returns the collection introspection service.
func (c *Client) Collections() *CollectionService {
	return &CollectionService{svc: c.collSvc, obs: c.obs}
}
