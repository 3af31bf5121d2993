package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nabla-works/ragd/internal/index"
)

// UpsertPoints writes points and waits for the operation to be applied,
// so a subsequent query sees them.
func (s *Store) UpsertPoints(ctx context.Context, collection string, points []index.Point) error {
	if len(points) == 0 {
		return nil
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload,omitempty"`
	}
	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, 0, len(points))}
	for _, p := range points {
		body.Points = append(body.Points, point{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}

	path := "/collections/" + url.PathEscape(collection) + "/points?wait=true"
	if err := s.doRequest(ctx, http.MethodPut, path, body, nil); err != nil {
		return &index.Error{Op: index.OpUpsertPoints, Err: err}
	}
	return nil
}

// DeletePoints removes all points matching the filter. The filter is
// mandatory; deleting a whole collection goes through collection APIs.
func (s *Store) DeletePoints(ctx context.Context, collection string, filter *index.Filter) error {
	body := map[string]any{}
	f := filterJSON(filter)
	if f == nil {
		return &index.Error{Op: index.OpDeletePoints, Err: fmt.Errorf("filter is required")}
	}
	body["filter"] = f

	path := "/collections/" + url.PathEscape(collection) + "/points/delete?wait=true"
	if err := s.doRequest(ctx, http.MethodPost, path, body, nil); err != nil {
		return &index.Error{Op: index.OpDeletePoints, Err: err}
	}
	return nil
}

// Query runs nearest-neighbor search and returns hits ordered by
// descending similarity. No score threshold is sent to the server.
func (s *Store) Query(ctx context.Context, collection string, q *index.VectorQuery) ([]index.ScoredPoint, error) {
	body := map[string]any{
		"query":        q.Vector,
		"limit":        q.Limit,
		"with_payload": q.WithPayload,
	}
	if f := filterJSON(q.Filter); f != nil {
		body["filter"] = f
	}

	var out struct {
		Result struct {
			Points []struct {
				ID      any            `json:"id"`
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	path := "/collections/" + url.PathEscape(collection) + "/points/query"
	if err := s.doRequest(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, &index.Error{Op: index.OpQueryPoints, Err: err}
	}

	hits := make([]index.ScoredPoint, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		hits = append(hits, index.ScoredPoint{
			ID:      idString(p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}
	return hits, nil
}

// Scroll lists points matching a filter, one page per call.
func (s *Store) Scroll(ctx context.Context, collection string, q *index.ScrollQuery) (*index.ScrollResult, error) {
	body := map[string]any{
		"limit":        q.Limit,
		"with_payload": q.WithPayload,
		"with_vector":  q.WithVector,
	}
	if f := filterJSON(q.Filter); f != nil {
		body["filter"] = f
	}
	if q.Offset != "" {
		body["offset"] = q.Offset
	}

	var out struct {
		Result struct {
			Points []struct {
				ID      any            `json:"id"`
				Payload map[string]any `json:"payload"`
				Vector  []float32      `json:"vector"`
			} `json:"points"`
			NextPageOffset any `json:"next_page_offset"`
		} `json:"result"`
	}
	path := "/collections/" + url.PathEscape(collection) + "/points/scroll"
	if err := s.doRequest(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, &index.Error{Op: index.OpScrollPoints, Err: err}
	}

	res := &index.ScrollResult{
		Points:     make([]index.Record, 0, len(out.Result.Points)),
		NextOffset: idString(out.Result.NextPageOffset),
	}
	for _, p := range out.Result.Points {
		res.Points = append(res.Points, index.Record{
			ID:      idString(p.ID),
			Payload: p.Payload,
			Vector:  p.Vector,
		})
	}
	return res, nil
}

// filterJSON converts a filter to the Qdrant wire shape, nil when empty.
func filterJSON(f *index.Filter) map[string]any {
	if f == nil || (len(f.Must) == 0 && len(f.MustNot) == 0) {
		return nil
	}
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = matchConditions(f.Must)
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = matchConditions(f.MustNot)
	}
	return out
}

func matchConditions(matches []index.Match) []map[string]any {
	conds := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		conds = append(conds, map[string]any{
			"key":   m.Key,
			"match": map[string]any{"value": m.Value},
		})
	}
	return conds
}

// idString renders a Qdrant point ID (UUID string or unsigned int) as a string.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatUint(uint64(id), 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
