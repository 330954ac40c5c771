package compliance

import (
	"context"
	"time"
)

// Health checks the compliance service health.
func (s *Service) Health(ctx context.Context) *HealthOutput {
	storeOk := s.store != nil && s.store.Ping(ctx) == nil

	status := "healthy"
	if !storeOk || s.engine == nil {
		status = "unhealthy"
	}

	validators := 0
	if s.engine != nil {
		validators = len(s.engine.ValidatorNames())
	}

	return &HealthOutput{
		Status:     status,
		Checks:     HealthChecks{Store: storeOk},
		Policy:     s.policyName,
		Validators: validators,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}
