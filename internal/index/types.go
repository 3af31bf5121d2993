package index

// CollectionSpec describes a collection to create.
type CollectionSpec struct {
	Name      string
	Dimension int
	Distance  string // defaults to "Cosine"
}

// CollectionInfo is the state of an existing collection.
type CollectionInfo struct {
	Name        string
	Status      string
	PointsCount int64
	Dimension   int
}

// Point is a vector with its payload, keyed by a Qdrant-compatible ID
// (UUID string or unsigned integer literal).
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a single hit from a vector query.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Record is a single point returned by a scroll.
type Record struct {
	ID      string
	Payload map[string]any
	Vector  []float32
}

// VectorQuery is the input for nearest-neighbor search.
// Results come back ordered by similarity; score filtering is the
// caller's job, the index is always queried unfiltered.
type VectorQuery struct {
	Vector      []float32
	Limit       int
	Filter      *Filter
	WithPayload bool
}

// ScrollQuery is the input for payload-filtered point listing.
type ScrollQuery struct {
	Filter      *Filter
	Limit       int
	Offset      string // next-page token from a previous scroll, empty for the first page
	WithPayload bool
	WithVector  bool
}

// ScrollResult is one page of a scroll.
type ScrollResult struct {
	Points     []Record
	NextOffset string // empty when the scroll is exhausted
}

// Filter matches points by exact payload values.
type Filter struct {
	Must    []Match
	MustNot []Match
}

// Match is a single exact-value condition on a payload field.
type Match struct {
	Key   string
	Value any
}

// MatchField builds a filter requiring field == value.
func MatchField(key string, value any) *Filter {
	return &Filter{Must: []Match{{Key: key, Value: value}}}
}
