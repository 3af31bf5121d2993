// Package document handles ingest and per-document operations: split,
// embed, upsert, and the chunk-backed views (list, info, similar).
package document

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/metrics"
)

// minContentRunes rejects uploads too short to be worth indexing.
const minContentRunes = 10

const (
	defaultUpsertBatch = 100
	defaultSimilarTopK = 5
	maxSimilarTopK     = 20
	similarOversample  = 3
)

// Options tunes ingest and similarity lookups.
type Options struct {
	Collection     string
	Dimension      int
	ChunkSize      int
	ChunkOverlap   int
	BatchSize      int
	ScoreThreshold float64
}

// UploadRequest is one document to index.
type UploadRequest struct {
	Title      string
	Content    string
	Metadata   map[string]any
	Collection string
}

// UploadResult summarizes one indexed document.
type UploadResult struct {
	DocumentID string
	Title      string
	ChunkCount int
	Collection string
}

// BatchItem is the per-document outcome of a batch upload.
type BatchItem struct {
	Result UploadResult
	Err    error
}

// BatchResult summarizes a batch upload. Individual failures do not
// abort the batch.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Items     []BatchItem
}

// Service handles document ingest and lookups.
type Service struct {
	repo     Repository
	colls    Collections
	searcher SimilaritySearcher
	embed    Embedder
	splitter *Splitter
	opts     Options
	logger   *zap.Logger
}

// New creates a document service.
func New(repo Repository, colls Collections, searcher SimilaritySearcher, embed Embedder, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultUpsertBatch
	}
	return &Service{
		repo:     repo,
		colls:    colls,
		searcher: searcher,
		embed:    embed,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		opts:     opts,
		logger:   logger,
	}
}

// Upload splits a document, embeds its chunks, and indexes them. The
// document ID derives from the content, so uploading identical content
// replaces the previous copy.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	start := time.Now()
	res, err := s.upload(ctx, req)
	observeIngest("upload", start, err)
	if err == nil {
		metrics.IngestChunksTotal.Add(float64(res.ChunkCount))
	}
	return res, err
}

func (s *Service) upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	collection := req.Collection
	if collection == "" {
		collection = s.opts.Collection
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return UploadResult{}, domain.NewValidation("title", "must not be empty")
	}
	if utf8.RuneCountInString(req.Content) < minContentRunes {
		return UploadResult{}, domain.NewValidation("content",
			fmt.Sprintf("must be at least %d characters", minContentRunes))
	}

	if err := s.colls.Ensure(ctx, collection, s.opts.Dimension); err != nil {
		return UploadResult{}, fmt.Errorf("ensure collection: %w", err)
	}

	texts := s.splitter.Split(req.Content)
	if len(texts) == 0 {
		return UploadResult{}, fmt.Errorf("split %q: %w", title, domain.ErrEmptyDocument)
	}

	docID := domain.NewDocumentID(req.Content)
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			DocumentID: docID,
			Index:      i,
			Total:      len(texts),
			Title:      title,
			Content:    text,
			Metadata:   req.Metadata,
		}
	}

	batch, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return UploadResult{}, fmt.Errorf("embed %d chunks: %w", len(texts), err)
	}
	if len(batch.Embeddings) != len(texts) {
		return UploadResult{}, fmt.Errorf("embedding count mismatch: got %d, want %d",
			len(batch.Embeddings), len(texts))
	}

	uploadedAt := time.Now().UTC()
	written := 0
	for lo := 0; lo < len(chunks); lo += s.opts.BatchSize {
		hi := min(lo+s.opts.BatchSize, len(chunks))
		n, err := s.repo.Upsert(ctx, collection, chunks[lo:hi], batch.Embeddings[lo:hi], uploadedAt)
		if err != nil {
			return UploadResult{}, fmt.Errorf("upsert chunks [%d:%d]: %w", lo, hi, err)
		}
		written += n
	}
	s.colls.Invalidate(collection)

	s.logger.Info("Document indexed",
		zap.String("document_id", docID),
		zap.String("title", title),
		zap.String("collection", collection),
		zap.Int("chunks", written),
		zap.Int("embedding_tokens", batch.TotalTokens),
	)

	return UploadResult{
		DocumentID: docID,
		Title:      title,
		ChunkCount: written,
		Collection: collection,
	}, nil
}

// UploadBatch indexes documents one by one and reports per-document
// outcomes.
func (s *Service) UploadBatch(ctx context.Context, docs []UploadRequest, collection string) (BatchResult, error) {
	if len(docs) == 0 {
		return BatchResult{}, domain.NewValidation("documents", "must not be empty")
	}

	out := BatchResult{Total: len(docs), Items: make([]BatchItem, 0, len(docs))}
	for _, doc := range docs {
		if collection != "" {
			doc.Collection = collection
		}
		res, err := s.Upload(ctx, doc)
		if err != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
		out.Items = append(out.Items, BatchItem{Result: res, Err: err})
	}

	s.logger.Info("Batch upload finished",
		zap.Int("total", out.Total),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed),
	)
	return out, nil
}

// Delete removes every chunk of a document and returns how many there were.
func (s *Service) Delete(ctx context.Context, collection, docID string) (int, error) {
	start := time.Now()
	n, err := s.delete(ctx, collection, docID)
	observeIngest("delete", start, err)
	return n, err
}

func (s *Service) delete(ctx context.Context, collection, docID string) (int, error) {
	collection = s.resolveCollection(collection)
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return 0, domain.NewValidation("document_id", "must not be empty")
	}

	n, err := s.repo.Delete(ctx, collection, docID)
	if err != nil {
		return 0, err
	}
	s.colls.Invalidate(collection)

	s.logger.Info("Document deleted",
		zap.String("document_id", docID),
		zap.String("collection", collection),
		zap.Int("chunks", n),
	)
	return n, nil
}

// List returns every indexed document, newest first.
func (s *Service) List(ctx context.Context, collection string) ([]domain.DocumentInfo, error) {
	return s.repo.List(ctx, s.resolveCollection(collection))
}

// Info returns the metadata of one document.
func (s *Service) Info(ctx context.Context, collection, docID string) (domain.DocumentInfo, error) {
	return s.repo.Info(ctx, s.resolveCollection(collection), docID)
}

// Similar returns documents close to the given one, best match first.
// The lookup reuses the stored first-chunk vector, so no embedding call
// is made. Returned IDs are document IDs, not point IDs.
func (s *Service) Similar(ctx context.Context, collection, docID string, topK int) ([]domain.ScoredDocument, error) {
	collection = s.resolveCollection(collection)
	if topK <= 0 {
		topK = defaultSimilarTopK
	}
	if topK > maxSimilarTopK {
		return nil, domain.NewValidation("top_k", fmt.Sprintf("must not exceed %d", maxSimilarTopK))
	}

	vec, err := s.repo.FirstChunkVector(ctx, collection, docID)
	if err != nil {
		return nil, err
	}

	// Chunk hits collapse into documents, so oversample the pool.
	hits, err := s.searcher.QueryExcluding(ctx, collection, vec, topK*similarOversample, docID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	seen := make(map[string]bool)
	out := make([]domain.ScoredDocument, 0, topK)
	for _, h := range hits {
		if h.Score < s.opts.ScoreThreshold {
			continue
		}
		id, _ := h.Metadata["document_id"].(string)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, domain.ScoredDocument{
			ID:      id,
			Score:   h.Score,
			Title:   h.Title,
			Content: h.Content,
		})
		if len(out) == topK {
			break
		}
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (s *Service) resolveCollection(collection string) string {
	if collection == "" {
		return s.opts.Collection
	}
	return collection
}

func observeIngest(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IngestDocumentsTotal.WithLabelValues(op, status).Inc()
	metrics.IngestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
