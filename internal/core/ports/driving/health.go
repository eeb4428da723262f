package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// HealthService reports the reachability of every collaborator.
type HealthService interface {
	// Check probes each service. It never fails; problems are reported
	// per service and reflected in the overall status.
	Check(ctx context.Context) domain.HealthStatus
}
