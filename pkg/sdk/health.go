package ragd

import "context"

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status         string // "healthy" or "unhealthy"
	IndexConnected bool
	Collections    int
	Err            error
}

// Health checks vector index connectivity and counts its collections.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	return HealthStatus{
		Status:         string(report.Status),
		IndexConnected: report.IndexConnected,
		Collections:    report.Collections,
		Err:            report.Err,
	}
}
