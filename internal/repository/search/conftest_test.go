package search

import (
	"context"
	"testing"

	"github.com/nabla-works/ragd/internal/index"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	queryFn func(ctx context.Context, collection string, q *index.VectorQuery) ([]index.ScoredPoint, error)
	calls   int
	lastQ   *index.VectorQuery
}

func (m *mockStore) Query(ctx context.Context, collection string, q *index.VectorQuery) ([]index.ScoredPoint, error) {
	m.calls++
	m.lastQ = q
	if m.queryFn != nil {
		return m.queryFn(ctx, collection, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}
