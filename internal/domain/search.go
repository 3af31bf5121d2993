package domain

// Query is a retrieval request. Zero values mean "use the configured
// default": TopK 0, Collection "", Threshold nil.
type Query struct {
	Text       string
	TopK       int
	Collection string
	Threshold  *float64
}

// ScoredDocument is one retrieved chunk with its similarity score and
// 1-based rank within the result set.
type ScoredDocument struct {
	ID       string
	Score    float64
	Rank     int
	Title    string
	Content  string
	Metadata map[string]any
}

// Trace captures the retrieval diagnostics of a single search: what
// threshold was in effect, how wide the index query was, and what came back
// before filtering. It travels with results and with SearchError.
type Trace struct {
	AppliedThreshold float64
	Limit            int
	RawCandidates    int
	MinScore         float64
	MaxScore         float64
	CacheHit         bool
}

// SearchResult is the outcome of a successful search. Documents is empty
// when nothing passed the threshold; that is still a success.
type SearchResult struct {
	Documents []ScoredDocument
	Trace     Trace
}
