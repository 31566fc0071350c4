package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// HealthService validates system health at three depths. None of the
// checks mutate stored data.
type HealthService interface {
	// Quick returns the basic liveness state without touching
	// dependencies.
	Quick() models.HealthState

	// Detailed checks storage, the scoring queue and the tracker and
	// reports per-component state.
	Detailed(ctx context.Context) *models.HealthReport

	// PipelineProbe performs a live end-to-end fetch of the configured
	// test pages through the external workflow, measuring latency and
	// adapted-field completeness. Nothing fetched is persisted.
	PipelineProbe(ctx context.Context) *models.PipelineProbeReport
}
