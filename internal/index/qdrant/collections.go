package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nabla-works/ragd/internal/index"
)

// EnsureCollection creates the collection if it does not exist yet.
// An existing collection with a different vector dimension is an error.
func (s *Store) EnsureCollection(ctx context.Context, spec index.CollectionSpec) error {
	info, err := s.CollectionInfo(ctx, spec.Name)
	if err == nil {
		if spec.Dimension > 0 && info.Dimension != spec.Dimension {
			return &index.Error{
				Op:  index.OpCreateCollection,
				Err: fmt.Errorf("collection %q has dimension %d, want %d: %w", spec.Name, info.Dimension, spec.Dimension, index.ErrDimensionMismatch),
			}
		}
		return nil
	}
	if !errors.Is(err, index.ErrCollectionNotFound) {
		return err
	}

	distance := spec.Distance
	if distance == "" {
		distance = "Cosine"
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimension,
			"distance": distance,
		},
	}
	if err := s.doRequest(ctx, http.MethodPut, "/collections/"+url.PathEscape(spec.Name), body, nil); err != nil {
		return &index.Error{Op: index.OpCreateCollection, Err: err}
	}
	return nil
}

// CollectionInfo fetches the status, point count and dimension of a collection.
func (s *Store) CollectionInfo(ctx context.Context, name string) (*index.CollectionInfo, error) {
	var out struct {
		Result struct {
			Status      string `json:"status"`
			PointsCount int64  `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil, &out); err != nil {
		if errors.Is(err, index.ErrCollectionNotFound) {
			return nil, err
		}
		return nil, &index.Error{Op: index.OpGetCollection, Err: err}
	}

	return &index.CollectionInfo{
		Name:        name,
		Status:      out.Result.Status,
		PointsCount: out.Result.PointsCount,
		Dimension:   out.Result.Config.Params.Vectors.Size,
	}, nil
}

// ListCollections returns the names of all collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var out struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, &index.Error{Op: index.OpListCollections, Err: err}
	}

	names := make([]string, 0, len(out.Result.Collections))
	for _, c := range out.Result.Collections {
		names = append(names, c.Name)
	}
	return names, nil
}
