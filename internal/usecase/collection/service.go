// Package collection exposes read access to index collections and the
// startup guarantee that the configured one exists.
package collection

import (
	"context"
	"fmt"

	"github.com/nabla-works/ragd/internal/domain"
)

// Service handles collection operations.
type Service struct {
	repo       Repository
	collection string
	dimension  int
}

// New creates a collection service bound to the configured default
// collection and embedding dimension.
func New(repo Repository, collection string, dimension int) *Service {
	return &Service{repo: repo, collection: collection, dimension: dimension}
}

// EnsureDefault creates the configured collection when missing. Called
// once at startup so the first upload or search never races creation.
func (s *Service) EnsureDefault(ctx context.Context) error {
	if err := s.repo.Ensure(ctx, s.collection, s.dimension); err != nil {
		return fmt.Errorf("ensure collection %s: %w", s.collection, err)
	}
	return nil
}

// List returns the names of all collections.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

// Info returns the state of one collection. An empty name selects the
// configured default.
func (s *Service) Info(ctx context.Context, name string) (domain.CollectionInfo, error) {
	if name == "" {
		name = s.collection
	}
	info, err := s.repo.Info(ctx, name)
	if err != nil {
		return domain.CollectionInfo{}, fmt.Errorf("collection info: %w", err)
	}
	return info, nil
}

// Infos returns the state of every collection plus the total name count.
// A collection whose info cannot be fetched is counted but omitted.
func (s *Service) Infos(ctx context.Context) ([]domain.CollectionInfo, int, error) {
	names, err := s.repo.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}

	infos := make([]domain.CollectionInfo, 0, len(names))
	for _, name := range names {
		info, err := s.repo.Info(ctx, name)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos, len(names), nil
}
