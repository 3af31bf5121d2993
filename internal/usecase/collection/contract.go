package collection

import (
	"context"

	"github.com/nabla-works/ragd/internal/domain"
)

// Repository defines the index contract for collections.
type Repository interface {
	Ensure(ctx context.Context, name string, dimension int) error
	Info(ctx context.Context, name string) (domain.CollectionInfo, error)
	List(ctx context.Context) ([]string, error)
}
