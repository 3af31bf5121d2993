package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/index"
)

const (
	defaultInfoTTL = 5 * time.Minute
	infoCacheSize  = 32
)

// store is the consumer interface for collections (ISP).
type store interface {
	EnsureCollection(ctx context.Context, spec index.CollectionSpec) error
	CollectionInfo(ctx context.Context, name string) (*index.CollectionInfo, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// Repo implements usecase/collection.Repository. Collection info is
// cached briefly; counts may lag writes by up to the TTL unless the
// writer invalidates.
type Repo struct {
	store store
	cache *expirable.LRU[string, domain.CollectionInfo]
}

// New creates a collection repository. infoTTL <= 0 selects the default.
func New(s store, infoTTL time.Duration) *Repo {
	if infoTTL <= 0 {
		infoTTL = defaultInfoTTL
	}
	return &Repo{
		store: s,
		cache: expirable.NewLRU[string, domain.CollectionInfo](infoCacheSize, nil, infoTTL),
	}
}

// Ensure creates the collection when missing and verifies its dimension.
func (r *Repo) Ensure(ctx context.Context, name string, dimension int) error {
	if err := r.store.EnsureCollection(ctx, index.CollectionSpec{Name: name, Dimension: dimension}); err != nil {
		return translate("ensure", name, err)
	}
	r.cache.Remove(name)
	return nil
}

// Info returns collection state, served from cache within the TTL.
func (r *Repo) Info(ctx context.Context, name string) (domain.CollectionInfo, error) {
	if info, ok := r.cache.Get(name); ok {
		return info, nil
	}

	raw, err := r.store.CollectionInfo(ctx, name)
	if err != nil {
		return domain.CollectionInfo{}, translate("info", name, err)
	}

	info := domain.CollectionInfo{
		Name:        raw.Name,
		Status:      raw.Status,
		PointsCount: raw.PointsCount,
		Dimension:   raw.Dimension,
	}
	r.cache.Add(name, info)
	return info, nil
}

// Invalidate drops the cached info for name. Writers call this after
// changing the point count.
func (r *Repo) Invalidate(name string) {
	r.cache.Remove(name)
}

// List returns the names of all collections in the index.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	names, err := r.store.ListCollections(ctx)
	if err != nil {
		return nil, translate("list", "", err)
	}
	return names, nil
}

func translate(op, name string, err error) error {
	switch {
	case errors.Is(err, index.ErrCollectionNotFound):
		return fmt.Errorf("%s %s: %w", op, name, domain.ErrCollectionNotFound)
	case errors.Is(err, index.ErrUnavailable):
		return fmt.Errorf("%s %s: %v: %w", op, name, err, domain.ErrIndexUnavailable)
	case errors.Is(err, index.ErrDimensionMismatch):
		return fmt.Errorf("%s %s: %v: %w", op, name, err, domain.ErrVectorDimMismatch)
	default:
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
}
