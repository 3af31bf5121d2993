package health

import "context"

// IndexPinger checks vector index availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// CollectionLister lists the collections the index serves.
type CollectionLister interface {
	List(ctx context.Context) ([]string, error)
}
