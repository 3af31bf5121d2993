package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the vector index is reachable.
	Healthy Status = "healthy"
	// Unhealthy indicates the vector index cannot serve requests.
	Unhealthy Status = "unhealthy"
)

// Report aggregates health check results.
type Report struct {
	Status         Status
	IndexConnected bool
	Collections    int
	Err            error
}

// Service coordinates health checks.
type Service struct {
	index       IndexPinger
	collections CollectionLister
}

// New creates a Service.
func New(index IndexPinger, collections CollectionLister) *Service {
	return &Service{index: index, collections: collections}
}

// Check probes the vector index and counts its collections.
func (s *Service) Check(ctx context.Context) Report {
	if err := s.index.Ping(ctx); err != nil {
		return Report{Status: Unhealthy, Err: err}
	}

	names, err := s.collections.List(ctx)
	if err != nil {
		return Report{Status: Unhealthy, IndexConnected: true, Err: err}
	}

	return Report{
		Status:         Healthy,
		IndexConnected: true,
		Collections:    len(names),
	}
}
