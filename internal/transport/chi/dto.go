package chi

import (
	"time"

	"github.com/nabla-works/ragd/internal/domain"
)

// errorCode labels an error response for machine consumption.
type errorCode string

const (
	codeBadRequest              errorCode = "bad_request"
	codeValidationFailed        errorCode = "validation_failed"
	codeCollectionNotFound      errorCode = "collection_not_found"
	codeDocumentNotFound        errorCode = "document_not_found"
	codeEmptyDocument           errorCode = "empty_document"
	codeVectorDimMismatch       errorCode = "vector_dim_mismatch"
	codeEmbeddingProviderError  errorCode = "embedding_provider_error"
	codeCompletionProviderError errorCode = "completion_provider_error"
	codeIndexUnavailable        errorCode = "index_unavailable"
	codeInternalError           errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type rootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type healthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	QdrantConnected  bool   `json:"qdrant_connected"`
	CollectionsCount int    `json:"collections_count"`
	Error            string `json:"error,omitempty"`
	Timestamp        string `json:"timestamp"`
}

type messageResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id,omitempty"`
	Success    bool   `json:"success,omitempty"`
}

type searchRequest struct {
	Query          string   `json:"query"`
	TopK           *int     `json:"top_k"`
	CollectionName string   `json:"collection_name"`
	ScoreThreshold *float64 `json:"score_threshold"`
}

type searchResultItem struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Rank     int            `json:"rank"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type searchTrace struct {
	AppliedThreshold float64 `json:"applied_threshold"`
	Limit            int     `json:"limit"`
	RawCandidates    int     `json:"raw_candidates"`
	MinScore         float64 `json:"min_score"`
	MaxScore         float64 `json:"max_score"`
	CacheHit         bool    `json:"cache_hit"`
}

type searchResponse struct {
	Results   []searchResultItem `json:"results"`
	Total     int                `json:"total"`
	Query     string             `json:"query"`
	Trace     searchTrace        `json:"trace"`
	Timestamp string             `json:"timestamp"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []chatMessage `json:"conversation_history"`
	TopK                *int          `json:"top_k"`
	Temperature         *float32      `json:"temperature"`
	CollectionName      string        `json:"collection_name"`
	Stream              bool          `json:"stream"`
}

type usagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Answer        string             `json:"answer"`
	SearchResults []searchResultItem `json:"search_results"`
	Model         string             `json:"model"`
	Usage         usagePayload       `json:"usage"`
	Success       bool               `json:"success"`
	Timestamp     string             `json:"timestamp"`
}

type uploadRequest struct {
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata"`
	CollectionName string         `json:"collection_name"`
}

type uploadResponse struct {
	Success     bool   `json:"success"`
	DocumentID  string `json:"document_id,omitempty"`
	Title       string `json:"title,omitempty"`
	ChunksCount int    `json:"chunks_count"`
	Collection  string `json:"collection,omitempty"`
	Error       string `json:"error,omitempty"`
}

type batchUploadRequest struct {
	Documents      []uploadRequest `json:"documents"`
	CollectionName string          `json:"collection_name"`
}

type batchUploadResponse struct {
	Total   int              `json:"total"`
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Details []uploadResponse `json:"details"`
}

type documentInfoResponse struct {
	DocumentID  string         `json:"document_id"`
	Title       string         `json:"title"`
	TotalChunks int            `json:"total_chunks"`
	UploadedAt  string         `json:"uploaded_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type documentListResponse struct {
	Documents []documentInfoResponse `json:"documents"`
	Total     int                    `json:"total"`
}

type deleteDocumentResponse struct {
	Message       string `json:"message"`
	DocumentID    string `json:"document_id"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

type similarResponse struct {
	DocumentID string             `json:"document_id"`
	Results    []searchResultItem `json:"results"`
	Total      int                `json:"total"`
}

type collectionPayload struct {
	Name        string `json:"name"`
	PointsCount int64  `json:"points_count"`
	Dimension   int    `json:"dimension"`
	Status      string `json:"status"`
}

type collectionsResponse struct {
	Collections []collectionPayload `json:"collections"`
	Total       int                 `json:"total"`
}

// ConfigInfo is the effective-configuration snapshot served by GET
// /api/config. The composition root fills it from the loaded config so the
// transport never reaches into the config package.
type ConfigInfo struct {
	Environment       string  `json:"environment"`
	CollectionName    string  `json:"collection_name"`
	ScoreThreshold    float64 `json:"search_score_threshold"`
	DefaultTopK       int     `json:"default_top_k"`
	MaxTopK           int     `json:"max_top_k"`
	OversampleFactor  float64 `json:"oversample_factor"`
	EmbeddingProvider string  `json:"embedding_provider"`
	EmbeddingModel    string  `json:"embedding_model"`
	VectorSize        int     `json:"vector_size"`
	LLMModel          string  `json:"llm_model"`
	CacheEnabled      bool    `json:"cache_enabled"`
	CacheTTLSeconds   int     `json:"cache_ttl_seconds"`
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func searchItemsFromDomain(docs []domain.ScoredDocument) []searchResultItem {
	items := make([]searchResultItem, len(docs))
	for i, d := range docs {
		items[i] = searchResultItem{
			ID:       d.ID,
			Score:    d.Score,
			Rank:     d.Rank,
			Title:    d.Title,
			Content:  d.Content,
			Metadata: d.Metadata,
		}
	}
	return items
}

func traceFromDomain(t domain.Trace) searchTrace {
	return searchTrace{
		AppliedThreshold: t.AppliedThreshold,
		Limit:            t.Limit,
		RawCandidates:    t.RawCandidates,
		MinScore:         t.MinScore,
		MaxScore:         t.MaxScore,
		CacheHit:         t.CacheHit,
	}
}

func documentInfoFromDomain(info domain.DocumentInfo) documentInfoResponse {
	return documentInfoResponse{
		DocumentID:  info.ID,
		Title:       info.Title,
		TotalChunks: info.TotalChunks,
		UploadedAt:  info.UploadedAt,
		Metadata:    info.Metadata,
	}
}

func collectionFromDomain(info domain.CollectionInfo) collectionPayload {
	return collectionPayload{
		Name:        info.Name,
		PointsCount: info.PointsCount,
		Dimension:   info.Dimension,
		Status:      info.Status,
	}
}

func historyFromWire(msgs []chatMessage) []domain.ChatMessage {
	if len(msgs) == 0 {
		return nil
	}
	history := make([]domain.ChatMessage, len(msgs))
	for i, m := range msgs {
		history[i] = domain.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return history
}
