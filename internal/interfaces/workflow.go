package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// CompanyFetchResult holds the outcome of one company fetch within a batch.
// Batch fetches tolerate per-item failures so a single dead company page
// does not lose the rest of the enrichment.
type CompanyFetchResult struct {
	URL     string
	Payload models.RawPayload
	Err     error
}

// WorkflowClient talks to the external scraping workflow service that
// performs the actual LinkedIn page fetches. Implementations handle
// retries, backoff and pacing; callers see one call per logical fetch.
type WorkflowClient interface {
	// FetchProfile retrieves the raw payload for a member profile URL.
	FetchProfile(ctx context.Context, url string) (models.RawPayload, error)

	// FetchCompany retrieves the raw payload for a company page URL.
	FetchCompany(ctx context.Context, url string) (models.RawPayload, error)

	// FetchCompanies retrieves payloads for several company URLs, pacing
	// requests to respect the workflow service's limits. The result slice
	// preserves input order.
	FetchCompanies(ctx context.Context, urls []string) []CompanyFetchResult
}
