// Package chi exposes the retrieval API over HTTP: search, RAG chat,
// document ingest, and the operational endpoints around them.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/domain"
	chatuc "github.com/nabla-works/ragd/internal/usecase/chat"
	collectionuc "github.com/nabla-works/ragd/internal/usecase/collection"
	documentuc "github.com/nabla-works/ragd/internal/usecase/document"
	healthuc "github.com/nabla-works/ragd/internal/usecase/health"
	searchuc "github.com/nabla-works/ragd/internal/usecase/search"
	"github.com/nabla-works/ragd/internal/version"
)

const serviceName = "ragd"

// maxUploadBytes bounds the in-memory part of a multipart file upload.
const maxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the API handlers and their use cases.
type Server struct {
	search        *searchuc.Service
	chat          *chatuc.Service
	documents     *documentuc.Service
	collections   *collectionuc.Service
	health        *healthuc.Service
	config        ConfigInfo
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	chat *chatuc.Service,
	documents *documentuc.Service,
	collections *collectionuc.Service,
	health *healthuc.Service,
	config ConfigInfo,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:      search,
		chat:        chat,
		documents:   documents,
		collections: collections,
		health:      health,
		config:      config,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest, codeEmptyDocument),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, codeCompletionProviderError),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
	}
	return s
}

// Register mounts every API route onto r. Middleware is applied by the
// caller before registration.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", s.handleHealth)
		api.Post("/search", s.handleSearch)
		api.Post("/chat", s.handleChat)
		api.Get("/collections", s.handleListCollections)
		api.Get("/collections/{name}", s.handleCollectionInfo)
		api.Delete("/cache", s.handleClearCache)
		api.Get("/config", s.handleConfig)

		api.Route("/documents", func(docs chi.Router) {
			docs.Post("/", s.handleUpload)
			docs.Post("/upload", s.handleUpload)
			docs.Post("/upload/batch", s.handleUploadBatch)
			docs.Post("/upload/file", s.handleUploadFile)
			docs.Get("/", s.handleListDocuments)
			docs.Get("/{id}", s.handleDocumentInfo)
			docs.Delete("/{id}", s.handleDeleteDocument)
			docs.Get("/{id}/similar", s.handleSimilarDocuments)
		})
	})
}

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Service: serviceName,
		Version: version.Version,
		Status:  "running",
	})
}

// handleHealth handles GET /health and GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	resp := healthResponse{
		Status:           string(report.Status),
		Service:          serviceName,
		QdrantConnected:  report.IndexConnected,
		CollectionsCount: report.Collections,
		Timestamp:        nowStamp(),
	}
	if report.Err != nil {
		resp.Error = report.Err.Error()
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleSearch handles POST /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q := domain.Query{
		Text:       req.Query,
		Collection: req.CollectionName,
		Threshold:  req.ScoreThreshold,
	}
	if req.TopK != nil {
		if *req.TopK < 1 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be at least 1")
			return
		}
		q.TopK = *req.TopK
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	result, err := s.search.Search(ctx, q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{
		Results:   searchItemsFromDomain(result.Documents),
		Total:     len(result.Documents),
		Query:     req.Query,
		Trace:     traceFromDomain(result.Trace),
		Timestamp: nowStamp(),
	})
}

// handleChat handles POST /api/chat, streaming over SSE when requested.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "temperature must be between 0 and 2")
		return
	}

	chatReq := chatuc.Request{
		Message:     req.Message,
		History:     historyFromWire(req.ConversationHistory),
		Collection:  req.CollectionName,
		Temperature: req.Temperature,
	}
	if req.TopK != nil {
		if *req.TopK < 1 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be at least 1")
			return
		}
		chatReq.TopK = *req.TopK
	}

	if req.Stream {
		s.streamChat(w, r, chatReq)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	answer, err := s.chat.Answer(ctx, chatReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, chatResponse{
		Answer:        answer.Text,
		SearchResults: searchItemsFromDomain(answer.Sources),
		Model:         answer.Model,
		Usage: usagePayload{
			PromptTokens:     answer.Usage.PromptTokens,
			CompletionTokens: answer.Usage.CompletionTokens,
			TotalTokens:      answer.Usage.TotalTokens(),
		},
		Success:   true,
		Timestamp: nowStamp(),
	})
}

// streamChat delivers the answer as SSE data events terminated by [DONE].
// Failures after the stream has started are reported in-stream as [ERROR]
// events since the status line is already on the wire.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, req chatuc.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, _ := domain.NewContextWithUsage(r.Context())
	_, err := s.chat.AnswerStream(ctx, req, func(delta string) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", delta); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.logger.Warn("chat stream failed", zap.Error(err))
		fmt.Fprintf(w, "data: [ERROR] %s\n\n", safeDomainMessage(err))
		flusher.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// handleListCollections handles GET /api/collections.
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	infos, total, err := s.collections.Infos(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]collectionPayload, len(infos))
	for i, c := range infos {
		items[i] = collectionFromDomain(c)
	}

	writeJSON(w, http.StatusOK, collectionsResponse{Collections: items, Total: total})
}

// handleCollectionInfo handles GET /api/collections/{name}.
func (s *Server) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.collections.Info(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, collectionFromDomain(info))
}

// handleClearCache handles DELETE /api/cache.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.search.ClearCache()
	writeJSON(w, http.StatusOK, messageResponse{
		Message: "캐시가 초기화되었습니다",
		Success: true,
	})
}

// handleConfig handles GET /api/config.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config)
}

// handleUpload handles POST /api/documents and POST /api/documents/upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	s.uploadAndRespond(r.Context(), w, documentuc.UploadRequest{
		Title:      req.Title,
		Content:    req.Content,
		Metadata:   req.Metadata,
		Collection: req.CollectionName,
	})
}

// handleUploadBatch handles POST /api/documents/upload/batch.
func (s *Server) handleUploadBatch(w http.ResponseWriter, r *http.Request) {
	var req batchUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	docs := make([]documentuc.UploadRequest, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = documentuc.UploadRequest{
			Title:      d.Title,
			Content:    d.Content,
			Metadata:   d.Metadata,
			Collection: d.CollectionName,
		}
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.documents.UploadBatch(ctx, docs, req.CollectionName)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	details := make([]uploadResponse, len(res.Items))
	for i, item := range res.Items {
		if item.Err != nil {
			details[i] = uploadResponse{
				Title: docs[i].Title,
				Error: item.Err.Error(),
			}
			continue
		}
		details[i] = uploadResponse{
			Success:     true,
			DocumentID:  item.Result.DocumentID,
			Title:       item.Result.Title,
			ChunksCount: item.Result.ChunkCount,
			Collection:  item.Result.Collection,
		}
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, batchUploadResponse{
		Total:   res.Total,
		Success: res.Succeeded,
		Failed:  res.Failed,
		Details: details,
	})
}

// handleUploadFile handles POST /api/documents/upload/file.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "file field is required")
		return
	}
	defer file.Close()

	content, err := readTextFile(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "파일 인코딩을 인식할 수 없습니다")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	if title == "" {
		title = "Untitled"
	}

	s.uploadAndRespond(r.Context(), w, documentuc.UploadRequest{
		Title:   title,
		Content: content,
		Metadata: map[string]any{
			"filename":     header.Filename,
			"content_type": header.Header.Get("Content-Type"),
		},
		Collection: r.FormValue("collection_name"),
	})
}

func (s *Server) uploadAndRespond(ctx context.Context, w http.ResponseWriter, req documentuc.UploadRequest) {
	ctx, usage := domain.NewContextWithUsage(ctx)
	res, err := s.documents.Upload(ctx, req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, uploadResponse{
		Success:     true,
		DocumentID:  res.DocumentID,
		Title:       res.Title,
		ChunksCount: res.ChunkCount,
		Collection:  res.Collection,
	})
}

// handleListDocuments handles GET /api/documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.documents.List(r.Context(), r.URL.Query().Get("collection_name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentInfoResponse, len(infos))
	for i, info := range infos {
		items[i] = documentInfoFromDomain(info)
	}

	writeJSON(w, http.StatusOK, documentListResponse{Documents: items, Total: len(items)})
}

// handleDocumentInfo handles GET /api/documents/{id}.
func (s *Server) handleDocumentInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.documents.Info(r.Context(), r.URL.Query().Get("collection_name"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentInfoFromDomain(info))
}

// handleDeleteDocument handles DELETE /api/documents/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	count, err := s.documents.Delete(r.Context(), r.URL.Query().Get("collection_name"), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteDocumentResponse{
		Message:       "문서가 삭제되었습니다",
		DocumentID:    id,
		ChunksDeleted: count,
	})
}

// handleSimilarDocuments handles GET /api/documents/{id}/similar.
func (s *Server) handleSimilarDocuments(w http.ResponseWriter, r *http.Request) {
	topK := 0
	if v := r.URL.Query().Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be a positive integer")
			return
		}
		topK = n
	}

	id := chi.URLParam(r, "id")
	docs, err := s.documents.Similar(r.Context(), r.URL.Query().Get("collection_name"), id, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarResponse{
		DocumentID: id,
		Results:    searchItemsFromDomain(docs),
		Total:      len(docs),
	})
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage == nil || !usage.Used {
		return
	}
	if usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if n := usage.PromptTokens + usage.CompletionTokens; n > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(n))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message for err. Only sentinel
// texts leak; everything else collapses to "internal error".
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrCollectionNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrEmptyDocument,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler surfaces the offending field instead of the generic
// sentinel text.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("%s: %s", verr.Field, verr.Reason))
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, domain.ErrValidation.Error())
		return true
	}
	return false
}

// handleDomainError maps a use-case error onto an HTTP response through the
// handler chain, defaulting to 500.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
