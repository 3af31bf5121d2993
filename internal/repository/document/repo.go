// Package document persists document chunks as points in the vector
// index and reassembles per-document views out of chunk payloads.
package document

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/index"
)

// scrollPageSize bounds one scroll request while listing or counting.
const scrollPageSize = 256

// store is the consumer interface for document points (ISP).
type store interface {
	UpsertPoints(ctx context.Context, collection string, points []index.Point) error
	DeletePoints(ctx context.Context, collection string, filter *index.Filter) error
	Scroll(ctx context.Context, collection string, q *index.ScrollQuery) (*index.ScrollResult, error)
}

// Repo stores and retrieves document chunks.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert writes one point per chunk and returns the number written.
// Vectors are positional: vectors[i] embeds chunks[i]. Point IDs derive
// from (document ID, chunk index), so re-uploading a document replaces
// its points in place.
func (r *Repo) Upsert(ctx context.Context, collection string, chunks []domain.Chunk, vectors [][]float32, uploadedAt time.Time) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	points := make([]index.Point, len(chunks))
	for i, c := range chunks {
		points[i] = index.Point{
			ID:      pointID(c.DocumentID, c.Index),
			Vector:  vectors[i],
			Payload: chunkPayload(c, uploadedAt),
		}
	}
	if err := r.store.UpsertPoints(ctx, collection, points); err != nil {
		return 0, translate("upsert document", collection, err)
	}
	return len(points), nil
}

// Delete removes every chunk of the document and reports how many
// chunks existed. A document with no points is ErrDocumentNotFound.
func (r *Repo) Delete(ctx context.Context, collection, docID string) (int, error) {
	filter := index.MatchField(fieldDocumentID, docID)

	count := 0
	offset := ""
	for {
		res, err := r.store.Scroll(ctx, collection, &index.ScrollQuery{
			Filter: filter,
			Limit:  scrollPageSize,
			Offset: offset,
		})
		if err != nil {
			return 0, translate("count document chunks", collection, err)
		}
		count += len(res.Points)
		if res.NextOffset == "" {
			break
		}
		offset = res.NextOffset
	}
	if count == 0 {
		return 0, fmt.Errorf("document %q in collection %q: %w", docID, collection, domain.ErrDocumentNotFound)
	}

	if err := r.store.DeletePoints(ctx, collection, filter); err != nil {
		return 0, translate("delete document", collection, err)
	}
	return count, nil
}

// List returns one entry per document, newest upload first. The index
// only knows chunks, so this scrolls the collection and keeps the first
// chunk payload seen per document ID.
func (r *Repo) List(ctx context.Context, collection string) ([]domain.DocumentInfo, error) {
	seen := make(map[string]domain.DocumentInfo)

	offset := ""
	for {
		res, err := r.store.Scroll(ctx, collection, &index.ScrollQuery{
			Limit:       scrollPageSize,
			Offset:      offset,
			WithPayload: true,
		})
		if err != nil {
			return nil, translate("list documents", collection, err)
		}
		for _, p := range res.Points {
			docID, ok := p.Payload[fieldDocumentID].(string)
			if !ok || docID == "" {
				continue
			}
			if _, dup := seen[docID]; dup {
				continue
			}
			seen[docID] = infoFromPayload(docID, p.Payload)
		}
		if res.NextOffset == "" {
			break
		}
		offset = res.NextOffset
	}

	infos := make([]domain.DocumentInfo, 0, len(seen))
	for _, info := range seen {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].UploadedAt != infos[j].UploadedAt {
			return infos[i].UploadedAt > infos[j].UploadedAt
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Info returns the metadata of a single document.
func (r *Repo) Info(ctx context.Context, collection, docID string) (domain.DocumentInfo, error) {
	res, err := r.store.Scroll(ctx, collection, &index.ScrollQuery{
		Filter:      index.MatchField(fieldDocumentID, docID),
		Limit:       1,
		WithPayload: true,
	})
	if err != nil {
		return domain.DocumentInfo{}, translate("get document", collection, err)
	}
	if len(res.Points) == 0 {
		return domain.DocumentInfo{}, fmt.Errorf("document %q in collection %q: %w", docID, collection, domain.ErrDocumentNotFound)
	}
	return infoFromPayload(docID, res.Points[0].Payload), nil
}

// FirstChunkVector returns the stored embedding of the document's first
// chunk, used as the query vector for similar-document search.
func (r *Repo) FirstChunkVector(ctx context.Context, collection, docID string) ([]float32, error) {
	filter := &index.Filter{Must: []index.Match{
		{Key: fieldDocumentID, Value: docID},
		{Key: fieldChunkIndex, Value: 0},
	}}
	res, err := r.store.Scroll(ctx, collection, &index.ScrollQuery{
		Filter:     filter,
		Limit:      1,
		WithVector: true,
	})
	if err != nil {
		return nil, translate("get document vector", collection, err)
	}
	if len(res.Points) == 0 {
		return nil, fmt.Errorf("document %q in collection %q: %w", docID, collection, domain.ErrDocumentNotFound)
	}
	if len(res.Points[0].Vector) == 0 {
		return nil, fmt.Errorf("document %q first chunk has no stored vector", docID)
	}
	return res.Points[0].Vector, nil
}

func translate(op, collection string, err error) error {
	switch {
	case errors.Is(err, index.ErrCollectionNotFound):
		return fmt.Errorf("%s: collection %q: %w", op, collection, domain.ErrCollectionNotFound)
	case errors.Is(err, index.ErrUnavailable):
		return fmt.Errorf("%s %s: %v: %w", op, collection, err, domain.ErrIndexUnavailable)
	default:
		return fmt.Errorf("%s %s: %w", op, collection, err)
	}
}
