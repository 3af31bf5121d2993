package document

import (
	"context"
	"testing"
	"time"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/index"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	upsertFn func(ctx context.Context, collection string, points []index.Point) error
	deleteFn func(ctx context.Context, collection string, filter *index.Filter) error
	scrollFn func(ctx context.Context, collection string, q *index.ScrollQuery) (*index.ScrollResult, error)

	upsertCalls int
	deleteCalls int
	scrollCalls int

	lastPoints []index.Point
	lastFilter *index.Filter
	lastScroll *index.ScrollQuery
}

func (m *mockStore) UpsertPoints(ctx context.Context, collection string, points []index.Point) error {
	m.upsertCalls++
	m.lastPoints = points
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, points)
	}
	return nil
}

func (m *mockStore) DeletePoints(ctx context.Context, collection string, filter *index.Filter) error {
	m.deleteCalls++
	m.lastFilter = filter
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collection, filter)
	}
	return nil
}

func (m *mockStore) Scroll(ctx context.Context, collection string, q *index.ScrollQuery) (*index.ScrollResult, error) {
	m.scrollCalls++
	m.lastScroll = q
	if m.scrollFn != nil {
		return m.scrollFn(ctx, collection, q)
	}
	return &index.ScrollResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

func testChunks(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			DocumentID: docID,
			Index:      i,
			Total:      n,
			Title:      "근로기준법 해설",
			Content:    "근로계약은 서면으로 체결한다.",
			Metadata:   map[string]any{"source": "manual"},
		}
	}
	return chunks
}

func testVectors(n, dim int) [][]float32 {
	vecs := make([][]float32, n)
	for i := range vecs {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = float32(i+j) * 0.001
		}
		vecs[i] = vec
	}
	return vecs
}

func testUploadedAt() time.Time {
	return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
}

func chunkPayloadPoint(docID string, chunkIndex, total int, uploadedAt string) index.Record {
	return index.Record{
		ID: pointID(docID, chunkIndex),
		Payload: map[string]any{
			fieldDocumentID:  docID,
			fieldTitle:       "근로기준법 해설",
			fieldContent:     "근로계약은 서면으로 체결한다.",
			fieldUploadedAt:  uploadedAt,
			fieldTotalChunks: float64(total),
			fieldChunkIndex:  float64(chunkIndex),
		},
	}
}
