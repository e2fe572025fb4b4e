package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the optional store is failing; snapshots still serve.
	Degraded Status = "degraded"
	// Unhealthy indicates the snapshots are unavailable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	snapshots SnapshotChecker
	store     StorePinger
}

// New creates a Service. store can be nil when no publish driver is configured.
func New(snapshots SnapshotChecker, store StorePinger) *Service {
	return &Service{snapshots: snapshots, store: store}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = CheckError
			status = Degraded
		} else {
			checks["store"] = CheckOK
		}
	}

	if err := s.snapshots.Ready(); err != nil {
		checks["snapshots"] = CheckError
		status = Unhealthy
	} else {
		checks["snapshots"] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
