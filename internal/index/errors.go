package index

import "errors"

// Sentinel errors for vector index operations.
var (
	ErrCollectionNotFound = errors.New("index: collection not found")
	ErrUnavailable        = errors.New("index: unavailable")
	ErrBadRequest         = errors.New("index: bad request")
	ErrDimensionMismatch  = errors.New("index: vector dimension mismatch")
)

// Op constants map to Qdrant REST endpoints for error context.
const (
	OpListCollections  = "GET /collections"
	OpGetCollection    = "GET /collections/{name}"
	OpCreateCollection = "PUT /collections/{name}"
	OpUpsertPoints     = "PUT /points"
	OpDeletePoints     = "POST /points/delete"
	OpQueryPoints      = "POST /points/query"
	OpScrollPoints     = "POST /points/scroll"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
