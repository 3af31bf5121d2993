package document

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/index"
)

// --- Upsert ---

func TestUpsert_WritesOnePointPerChunk(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	chunks := testChunks("a1b2c3d4e5f60718", 3)
	vectors := testVectors(3, 4)

	n, err := repo.Upsert(ctx, "labor_docs", chunks, vectors, testUploadedAt())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 points written, got %d", n)
	}
	if len(ms.lastPoints) != 3 {
		t.Fatalf("expected 3 points in upsert, got %d", len(ms.lastPoints))
	}

	p := ms.lastPoints[1]
	if p.ID != pointID("a1b2c3d4e5f60718", 1) {
		t.Errorf("unexpected point ID: %s", p.ID)
	}
	if p.Payload[fieldDocumentID] != "a1b2c3d4e5f60718" {
		t.Errorf("unexpected document_id: %v", p.Payload[fieldDocumentID])
	}
	if p.Payload[fieldChunkIndex] != 1 {
		t.Errorf("expected chunk_index=1, got %v", p.Payload[fieldChunkIndex])
	}
	if p.Payload[fieldTotalChunks] != 3 {
		t.Errorf("expected total_chunks=3, got %v", p.Payload[fieldTotalChunks])
	}
	if p.Payload[fieldUploadedAt] != "2025-06-01T09:30:00Z" {
		t.Errorf("expected RFC3339 uploaded_at, got %v", p.Payload[fieldUploadedAt])
	}
	if p.Payload["source"] != "manual" {
		t.Errorf("expected chunk metadata merged into payload, got %v", p.Payload)
	}
}

func TestUpsert_StablePointIDs(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	chunks := testChunks("a1b2c3d4e5f60718", 2)
	vectors := testVectors(2, 4)

	if _, err := repo.Upsert(ctx, "labor_docs", chunks, vectors, testUploadedAt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := []string{ms.lastPoints[0].ID, ms.lastPoints[1].ID}

	if _, err := repo.Upsert(ctx, "labor_docs", chunks, vectors, testUploadedAt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.lastPoints[0].ID != first[0] || ms.lastPoints[1].ID != first[1] {
		t.Fatal("expected identical point IDs on re-upload")
	}
	if first[0] == first[1] {
		t.Fatal("expected distinct IDs for distinct chunks")
	}
}

func TestUpsert_CountMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "labor_docs", testChunks("d1", 3), testVectors(2, 4), testUploadedAt())
	if err == nil {
		t.Fatal("expected error on chunk/vector count mismatch")
	}
}

func TestUpsert_EmptyIsNoop(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.Upsert(ctx, "labor_docs", nil, nil, testUploadedAt())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 points, got %d", n)
	}
	if ms.upsertCalls != 0 {
		t.Fatalf("expected no upsert call, got %d", ms.upsertCalls)
	}
}

func TestUpsert_TranslatesUnavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.upsertFn = func(_ context.Context, _ string, _ []index.Point) error {
		return fmt.Errorf("connect: %w", index.ErrUnavailable)
	}

	_, err := repo.Upsert(ctx, "labor_docs", testChunks("d1", 1), testVectors(1, 4), testUploadedAt())
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

// --- Delete ---

func TestDelete_CountsThenDeletes(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	pages := []*index.ScrollResult{
		{Points: []index.Record{chunkPayloadPoint("d1", 0, 3, "2025-06-01T09:30:00Z"), chunkPayloadPoint("d1", 1, 3, "2025-06-01T09:30:00Z")}, NextOffset: "p2"},
		{Points: []index.Record{chunkPayloadPoint("d1", 2, 3, "2025-06-01T09:30:00Z")}},
	}
	ms.scrollFn = func(_ context.Context, _ string, q *index.ScrollQuery) (*index.ScrollResult, error) {
		if q.Offset == "" {
			return pages[0], nil
		}
		if q.Offset != "p2" {
			t.Errorf("unexpected offset: %s", q.Offset)
		}
		return pages[1], nil
	}

	n, err := repo.Delete(ctx, "labor_docs", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 chunks deleted, got %d", n)
	}
	if ms.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", ms.deleteCalls)
	}
	if ms.lastFilter == nil || len(ms.lastFilter.Must) != 1 {
		t.Fatalf("expected a document_id filter, got %+v", ms.lastFilter)
	}
	if ms.lastFilter.Must[0].Key != fieldDocumentID || ms.lastFilter.Must[0].Value != "d1" {
		t.Errorf("unexpected filter condition: %+v", ms.lastFilter.Must[0])
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Delete(ctx, "labor_docs", "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if ms.deleteCalls != 0 {
		t.Fatal("expected no delete call for unknown document")
	}
}

func TestDelete_TranslatesUnavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.scrollFn = func(_ context.Context, _ string, _ *index.ScrollQuery) (*index.ScrollResult, error) {
		return nil, fmt.Errorf("connect: %w", index.ErrUnavailable)
	}

	_, err := repo.Delete(ctx, "labor_docs", "d1")
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

// --- List ---

func TestList_GroupsChunksByDocument(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	pages := []*index.ScrollResult{
		{
			Points: []index.Record{
				chunkPayloadPoint("old-doc", 0, 2, "2025-05-01T00:00:00Z"),
				chunkPayloadPoint("new-doc", 0, 1, "2025-06-01T00:00:00Z"),
			},
			NextOffset: "p2",
		},
		{
			Points: []index.Record{
				chunkPayloadPoint("old-doc", 1, 2, "2025-05-01T00:00:00Z"),
			},
		},
	}
	ms.scrollFn = func(_ context.Context, _ string, q *index.ScrollQuery) (*index.ScrollResult, error) {
		if !q.WithPayload {
			t.Error("expected with_payload on list scroll")
		}
		if q.Offset == "" {
			return pages[0], nil
		}
		return pages[1], nil
	}

	infos, err := repo.List(ctx, "labor_docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(infos))
	}
	if infos[0].ID != "new-doc" || infos[1].ID != "old-doc" {
		t.Fatalf("expected newest first, got %s, %s", infos[0].ID, infos[1].ID)
	}
	if infos[1].TotalChunks != 2 {
		t.Errorf("expected total_chunks=2, got %d", infos[1].TotalChunks)
	}
	if infos[0].Title != "근로기준법 해설" {
		t.Errorf("unexpected title: %s", infos[0].Title)
	}
}

func TestList_SkipsPointsWithoutDocumentID(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.scrollFn = func(_ context.Context, _ string, _ *index.ScrollQuery) (*index.ScrollResult, error) {
		return &index.ScrollResult{Points: []index.Record{
			{ID: "stray", Payload: map[string]any{"content": "orphan"}},
			chunkPayloadPoint("d1", 0, 1, "2025-06-01T00:00:00Z"),
		}}, nil
	}

	infos, err := repo.List(ctx, "labor_docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 document, got %d", len(infos))
	}
}

func TestList_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	infos, err := repo.List(ctx, "labor_docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected no documents, got %d", len(infos))
	}
}

// --- Info ---

func TestInfo_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.scrollFn = func(_ context.Context, _ string, q *index.ScrollQuery) (*index.ScrollResult, error) {
		if q.Limit != 1 {
			t.Errorf("expected limit=1, got %d", q.Limit)
		}
		if q.Filter == nil || q.Filter.Must[0].Value != "d1" {
			t.Errorf("expected document_id filter, got %+v", q.Filter)
		}
		return &index.ScrollResult{Points: []index.Record{
			chunkPayloadPoint("d1", 0, 4, "2025-06-01T09:30:00Z"),
		}}, nil
	}

	info, err := repo.Info(ctx, "labor_docs", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ID != "d1" {
		t.Errorf("expected ID d1, got %s", info.ID)
	}
	if info.TotalChunks != 4 {
		t.Errorf("expected total_chunks=4, got %d", info.TotalChunks)
	}
	if info.UploadedAt != "2025-06-01T09:30:00Z" {
		t.Errorf("unexpected uploaded_at: %s", info.UploadedAt)
	}
}

func TestInfo_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Info(ctx, "labor_docs", "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestInfo_ExtraPayloadBecomesMetadata(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	rec := chunkPayloadPoint("d1", 0, 1, "2025-06-01T09:30:00Z")
	rec.Payload["category"] = "노동법"

	ms.scrollFn = func(_ context.Context, _ string, _ *index.ScrollQuery) (*index.ScrollResult, error) {
		return &index.ScrollResult{Points: []index.Record{rec}}, nil
	}

	info, err := repo.Info(ctx, "labor_docs", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Metadata["category"] != "노동법" {
		t.Errorf("expected category metadata, got %v", info.Metadata)
	}
	if _, ok := info.Metadata[fieldContent]; ok {
		t.Error("expected content excluded from metadata")
	}
	if _, ok := info.Metadata[fieldChunkIndex]; ok {
		t.Error("expected chunk_index excluded from metadata")
	}
}

// --- FirstChunkVector ---

func TestFirstChunkVector_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	want := []float32{0.1, 0.2, 0.3}
	ms.scrollFn = func(_ context.Context, _ string, q *index.ScrollQuery) (*index.ScrollResult, error) {
		if !q.WithVector {
			t.Error("expected with_vector on vector fetch")
		}
		if q.Filter == nil || len(q.Filter.Must) != 2 {
			t.Fatalf("expected document_id+chunk_index filter, got %+v", q.Filter)
		}
		if q.Filter.Must[1].Key != fieldChunkIndex || q.Filter.Must[1].Value != 0 {
			t.Errorf("expected chunk_index=0 condition, got %+v", q.Filter.Must[1])
		}
		return &index.ScrollResult{Points: []index.Record{{ID: "p1", Vector: want}}}, nil
	}

	vec, err := repo.FirstChunkVector(ctx, "labor_docs", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestFirstChunkVector_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FirstChunkVector(ctx, "labor_docs", "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestFirstChunkVector_MissingVector(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.scrollFn = func(_ context.Context, _ string, _ *index.ScrollQuery) (*index.ScrollResult, error) {
		return &index.ScrollResult{Points: []index.Record{{ID: "p1"}}}, nil
	}

	_, err := repo.FirstChunkVector(ctx, "labor_docs", "d1")
	if err == nil {
		t.Fatal("expected error when stored point has no vector")
	}
}

// --- translate ---

func TestTranslate_CollectionNotFound(t *testing.T) {
	err := translate("get document", "labor_docs", fmt.Errorf("status 404: %w", index.ErrCollectionNotFound))
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}
