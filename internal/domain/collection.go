package domain

// CollectionInfo describes a vector collection as reported by the index.
type CollectionInfo struct {
	Name        string
	PointsCount int64
	Dimension   int
	Status      string
}
