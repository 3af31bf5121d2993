package index

import (
	"context"
	"time"
)

// Store is the main vector index facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	CollectionManager
	PointWriter
	Querier
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks index connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectionManager provides collection lifecycle operations.
type CollectionManager interface {
	EnsureCollection(ctx context.Context, spec CollectionSpec) error
	CollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// PointWriter provides point write operations.
type PointWriter interface {
	UpsertPoints(ctx context.Context, collection string, points []Point) error
	DeletePoints(ctx context.Context, collection string, filter *Filter) error
}

// Querier provides read operations over collection points.
type Querier interface {
	Query(ctx context.Context, collection string, q *VectorQuery) ([]ScoredPoint, error)
	Scroll(ctx context.Context, collection string, q *ScrollQuery) (*ScrollResult, error)
}
