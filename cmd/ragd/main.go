package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/cache"
	"github.com/nabla-works/ragd/internal/config"
	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/index/qdrant"
	logpkg "github.com/nabla-works/ragd/internal/logger"
	"github.com/nabla-works/ragd/internal/metrics"
	collectionrepo "github.com/nabla-works/ragd/internal/repository/collection"
	documentrepo "github.com/nabla-works/ragd/internal/repository/document"
	searchrepo "github.com/nabla-works/ragd/internal/repository/search"
	chiTransport "github.com/nabla-works/ragd/internal/transport/chi"
	openaiTransport "github.com/nabla-works/ragd/internal/transport/openai"
	"github.com/nabla-works/ragd/internal/transport/voyage"
	chatuc "github.com/nabla-works/ragd/internal/usecase/chat"
	collectionuc "github.com/nabla-works/ragd/internal/usecase/collection"
	documentuc "github.com/nabla-works/ragd/internal/usecase/document"
	embeddinguc "github.com/nabla-works/ragd/internal/usecase/embedding"
	healthuc "github.com/nabla-works/ragd/internal/usecase/health"
	searchuc "github.com/nabla-works/ragd/internal/usecase/search"
	"github.com/nabla-works/ragd/internal/version"
)

// collectionInfoTTL bounds how long cached collection metadata is served.
const collectionInfoTTL = 5 * time.Minute

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("qdrant_url", cfg.Qdrant.URL),
		zap.String("collection", cfg.Search.Collection),
	)

	store, err := qdrant.NewStore(qdrant.Config{
		URL:     cfg.Qdrant.URL,
		APIKey:  cfg.Qdrant.APIKey,
		Timeout: time.Duration(cfg.Qdrant.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create qdrant store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the vector index to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Qdrant.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector index not ready", zap.Error(err))
	}
	logger.Info("Connected to vector index")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterChatMetrics()
	metrics.RegisterIngestMetrics()

	// Build embedders. Queries and stored documents get
	// separate embedders so providers with asymmetric retrieval vectors
	// embed each side correctly.
	provName := cfg.Embedding.Provider
	provCfg := cfg.Embedding.Providers[provName]

	queryEmbedder := buildEmbedder(provName, provCfg, cfg.Embedding, voyage.InputTypeQuery, logger)
	docEmbedder := buildEmbedder(provName, provCfg, cfg.Embedding, voyage.InputTypeDocument, logger)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", provCfg.Model),
		zap.Int("dimensions", provCfg.Dimensions),
	)

	// Result cache
	var resultCache searchuc.ResultCache = cache.Nop{}
	if !cfg.Cache.Disabled {
		resultCache = cache.NewResults(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSec)*time.Second)
	}

	// Create repositories
	collRepo := collectionrepo.New(store, collectionInfoTTL)
	docRepo := documentrepo.New(store)
	searchRepo := searchrepo.New(store)

	// Create use case services
	searchSvc := searchuc.New(searchRepo, queryEmbedder, resultCache, searchuc.Options{
		Collection:       cfg.Search.Collection,
		ScoreThreshold:   cfg.Search.ScoreThreshold,
		DefaultTopK:      cfg.Search.DefaultTopK,
		MaxTopK:          cfg.Search.MaxTopK,
		OversampleFactor: cfg.Search.OversampleFactor,
	}, logger)

	llmClient := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Logger:      logger,
	})
	chatSvc := chatuc.New(searchSvc, llmClient, cfg.LLM.MaxHistory, logger)

	collSvc := collectionuc.New(collRepo, cfg.Search.Collection, provCfg.Dimensions)
	if err := collSvc.EnsureDefault(ctx); err != nil {
		logger.Fatal("Failed to ensure default collection", zap.Error(err))
	}

	docSvc := documentuc.New(docRepo, collRepo, searchRepo, docEmbedder, documentuc.Options{
		Collection:     cfg.Search.Collection,
		Dimension:      provCfg.Dimensions,
		ChunkSize:      cfg.Ingest.ChunkSize,
		ChunkOverlap:   cfg.Ingest.ChunkOverlap,
		BatchSize:      cfg.Ingest.BatchSize,
		ScoreThreshold: cfg.Search.ScoreThreshold,
	}, logger)

	healthSvc := healthuc.New(store, collRepo)

	// Effective configuration surfaced at /api/config for diagnosability
	configInfo := chiTransport.ConfigInfo{
		Environment:       env,
		CollectionName:    cfg.Search.Collection,
		ScoreThreshold:    cfg.Search.ScoreThreshold,
		DefaultTopK:       cfg.Search.DefaultTopK,
		MaxTopK:           cfg.Search.MaxTopK,
		OversampleFactor:  cfg.Search.OversampleFactor,
		EmbeddingProvider: provName,
		EmbeddingModel:    provCfg.Model,
		VectorSize:        provCfg.Dimensions,
		LLMModel:          cfg.LLM.Model,
		CacheEnabled:      !cfg.Cache.Disabled,
		CacheTTLSeconds:   cfg.Cache.TTLSec,
	}

	server := chiTransport.NewServer(searchSvc, chatSvc, docSvc, collSvc, healthSvc, configInfo, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the provider + instrumentation chain for one
// input side (query or document). The concrete decorator is returned so
// ingestion keeps its BatchEmbed method.
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	embCfg config.EmbeddingConfig,
	inputType string,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	timeout := time.Duration(embCfg.TimeoutSec) * time.Second

	var base domain.Embedder
	switch provName {
	case "voyage":
		base = voyage.NewEmbedder(&voyage.Config{
			APIKey:    provCfg.APIKey,
			BaseURL:   provCfg.BaseURL,
			Model:     provCfg.Model,
			InputType: inputType,
			Timeout:   timeout,
			Logger:    logger,
		})
	default:
		// OpenAI embeds queries and documents symmetrically.
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      provCfg.Model,
			Dimensions: provCfg.Dimensions,
			Logger:     logger,
		})
	}

	return embeddinguc.NewInstrumentedEmbedder(base, provName, provCfg.Model, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
