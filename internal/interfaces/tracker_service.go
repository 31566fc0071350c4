package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// TrackerStats summarizes the tracked ingestion requests.
type TrackerStats struct {
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// TrackerService keeps in-memory state for in-flight and recently finished
// ingestion requests. Terminal records are evicted after a TTL; the tracker
// never touches persistent storage.
type TrackerService interface {
	// Begin registers a new ingestion request and returns its initial
	// status snapshot.
	Begin(requestID, linkedinURL string) *models.IngestionStatus

	// Update mutates the tracked status under the tracker's lock. The
	// callback must not retain the pointer.
	Update(requestID string, mutate func(*models.IngestionStatus))

	// Get returns a snapshot of the tracked status.
	Get(requestID string) (*models.IngestionStatus, bool)

	// Stats returns counts by state.
	Stats() TrackerStats

	// Start launches the eviction loop; it runs until the context is
	// cancelled.
	Start(ctx context.Context)
}
