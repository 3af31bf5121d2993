package collection

import (
	"context"
	"testing"
	"time"

	"github.com/nabla-works/ragd/internal/index"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	ensureFn func(ctx context.Context, spec index.CollectionSpec) error
	infoFn   func(ctx context.Context, name string) (*index.CollectionInfo, error)
	listFn   func(ctx context.Context) ([]string, error)

	infoCalls int
}

func (m *mockStore) EnsureCollection(ctx context.Context, spec index.CollectionSpec) error {
	if m.ensureFn != nil {
		return m.ensureFn(ctx, spec)
	}
	return nil
}

func (m *mockStore) CollectionInfo(ctx context.Context, name string) (*index.CollectionInfo, error) {
	m.infoCalls++
	if m.infoFn != nil {
		return m.infoFn(ctx, name)
	}
	return &index.CollectionInfo{Name: name, Status: "green", PointsCount: 10, Dimension: 1024}, nil
}

func (m *mockStore) ListCollections(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []string{"labor_consultant_docs"}, nil
}

func newTestRepo(t *testing.T, ttl time.Duration) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, ttl), ms
}
