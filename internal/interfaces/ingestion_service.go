package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// IngestionService orchestrates the full profile ingestion pipeline:
// validation, duplicate detection, the external profile fetch, adaptation,
// persistence, and optional organization enrichment.
type IngestionService interface {
	// Ingest runs the pipeline for one LinkedIn profile URL. When async
	// processing is enabled the call returns after registering the request
	// and the pipeline continues in the background.
	Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResult, error)

	// Status returns the tracked state of a previous ingestion request.
	Status(requestID string) (*models.IngestionStatus, bool)
}
