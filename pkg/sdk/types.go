package ragd

import "github.com/nabla-works/ragd/internal/domain"

// Conversation roles accepted in chat history.
const (
	RoleUser      = domain.RoleUser
	RoleAssistant = domain.RoleAssistant
)

// ScoredDocument is one retrieved chunk with its similarity score and
// 1-based rank within the result set.
type ScoredDocument struct {
	ID       string
	Score    float64
	Rank     int
	Title    string
	Content  string
	Metadata map[string]any
}

// Trace captures the retrieval diagnostics of a single search: the
// threshold in effect, how wide the index query was, and what came back
// before filtering.
type Trace struct {
	AppliedThreshold float64
	Limit            int
	RawCandidates    int
	MinScore         float64
	MaxScore         float64
	CacheHit         bool
}

// SearchResult is the outcome of a successful search. Documents is empty
// when nothing passed the threshold; that is still a success.
type SearchResult struct {
	Documents []ScoredDocument
	Trace     Trace
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// TokenUsage counts provider tokens consumed by one operation.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Answer is a RAG chat response: the generated text plus the retrieved
// sources it was grounded on.
type Answer struct {
	Text    string
	Sources []ScoredDocument
	Model   string
	Usage   TokenUsage
}

// CollectionInfo describes a vector collection as reported by the index.
type CollectionInfo struct {
	Name        string
	PointsCount int64
	Dimension   int
	Status      string
}

// DocumentInfo summarizes an indexed document as recorded in its chunk
// payloads.
type DocumentInfo struct {
	ID          string
	Title       string
	TotalChunks int
	UploadedAt  string
	Metadata    map[string]any
}

// Upload is one document to index.
type Upload struct {
	Title    string
	Content  string
	Metadata map[string]any
}

// UploadResult summarizes one indexed document.
type UploadResult struct {
	DocumentID string
	Title      string
	ChunkCount int
}

// BatchItem is the per-document outcome of a batch upload.
type BatchItem struct {
	Result UploadResult
	Err    error
}

// BatchResult summarizes a batch upload.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Items     []BatchItem
}

func docsFromDomain(docs []domain.ScoredDocument) []ScoredDocument {
	out := make([]ScoredDocument, len(docs))
	for i, d := range docs {
		out[i] = ScoredDocument{
			ID:       d.ID,
			Score:    d.Score,
			Rank:     d.Rank,
			Title:    d.Title,
			Content:  d.Content,
			Metadata: d.Metadata,
		}
	}
	return out
}

func traceFromDomain(t domain.Trace) Trace {
	return Trace{
		AppliedThreshold: t.AppliedThreshold,
		Limit:            t.Limit,
		RawCandidates:    t.RawCandidates,
		MinScore:         t.MinScore,
		MaxScore:         t.MaxScore,
		CacheHit:         t.CacheHit,
	}
}

func infoFromDomain(info domain.DocumentInfo) DocumentInfo {
	return DocumentInfo{
		ID:          info.ID,
		Title:       info.Title,
		TotalChunks: info.TotalChunks,
		UploadedAt:  info.UploadedAt,
		Metadata:    info.Metadata,
	}
}

func answerFromDomainAnswer(a domain.Answer) Answer {
	return Answer{
		Text:    a.Text,
		Sources: docsFromDomain(a.Sources),
		Model:   a.Model,
		Usage: TokenUsage{
			PromptTokens:     a.Usage.PromptTokens,
			CompletionTokens: a.Usage.CompletionTokens,
			TotalTokens:      a.Usage.TotalTokens(),
		},
	}
}

func historyToDomain(history []ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(history))
	for i, m := range history {
		out[i] = domain.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
