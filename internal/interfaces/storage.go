package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/persona/internal/models"
)

// ProfileListOptions controls filtering, pagination and ordering for
// profile listings. SortBy must already be resolved to a struct field
// name by the caller.
type ProfileListOptions struct {
	// LinkedInURL matches exactly against the normalized URL.
	LinkedInURL string
	// Name and Company match as case-insensitive substrings.
	Name    string
	Company string

	Limit   int
	Offset  int
	SortBy  string
	SortDir string // "asc" or "desc"
}

// ScoringJobListOptions controls filtering for scoring job listings.
type ScoringJobListOptions struct {
	ProfileID string
	Status    models.ScoringJobStatus
	Limit     int
	Offset    int
}

// ProfileStorage - interface for canonical profile persistence
type ProfileStorage interface {
	SaveProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByURL(ctx context.Context, normalizedURL string) (*models.Profile, error)
	ListProfiles(ctx context.Context, opts *ProfileListOptions) ([]*models.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	CountProfiles(ctx context.Context) (int, error)

	// CountProfilesMatching counts profiles matching the filter fields of
	// opts, ignoring pagination and ordering. Backs has_more math.
	CountProfilesMatching(ctx context.Context, opts *ProfileListOptions) (int, error)

	// Bulk operations
	ClearAll(ctx context.Context) error
}

// OrganizationStorage - interface for organization persistence
type OrganizationStorage interface {
	SaveOrganization(ctx context.Context, org *models.Organization) error
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	GetOrganizationByURL(ctx context.Context, normalizedURL string) (*models.Organization, error)
	GetAllOrganizations(ctx context.Context) ([]*models.Organization, error)
	DeleteOrganization(ctx context.Context, id string) error
	CountOrganizations(ctx context.Context) (int, error)

	// Bulk operations
	ClearAll(ctx context.Context) error
}

// EdgeStorage - interface for profile-organization employment links.
// Edge IDs are derived from (profile, organization, start date) so repeated
// ingestion of the same profile upserts instead of duplicating.
type EdgeStorage interface {
	SaveEdge(ctx context.Context, edge *models.ProfileOrganization) error
	GetEdgesByProfile(ctx context.Context, profileID string) ([]*models.ProfileOrganization, error)
	GetEdgesByOrganization(ctx context.Context, organizationID string) ([]*models.ProfileOrganization, error)
	DeleteEdgesByProfile(ctx context.Context, profileID string) error
	CountEdgesByOrganization(ctx context.Context, organizationID string) (int, error)

	// Bulk operations
	ClearAll(ctx context.Context) error
}

// ScoringJobStorage - interface for scoring job persistence and claiming
type ScoringJobStorage interface {
	SaveJob(ctx context.Context, job *models.ScoringJob) error
	GetJob(ctx context.Context, id string) (*models.ScoringJob, error)
	ListJobs(ctx context.Context, opts *ScoringJobListOptions) ([]*models.ScoringJob, error)

	// NextPending returns the oldest pending job, or nil when the queue is
	// empty.
	NextPending(ctx context.Context) (*models.ScoringJob, error)

	// ClaimJob transitions a job from pending to processing. Exactly one
	// concurrent caller wins; the rest observe claimed == false.
	ClaimJob(ctx context.Context, jobID string) (claimed bool, err error)

	// RequeueJob transitions a failed, retryable job back to pending and
	// increments its retry count. Returns NotRetryableError when the job
	// is not failed, its error is permanent, or the retry budget is spent.
	RequeueJob(ctx context.Context, jobID string) (*models.ScoringJob, error)

	// CountJobsByProfileSince counts jobs created for a profile at or after
	// the given instant. Used for per-profile rate limiting.
	CountJobsByProfileSince(ctx context.Context, profileID string, since time.Time) (int, error)

	CountJobsByStatus(ctx context.Context, status models.ScoringJobStatus) (int, error)

	// CountJobsByTemplate counts jobs that recorded the given template as
	// their prompt source. A non-zero count blocks template deletion.
	CountJobsByTemplate(ctx context.Context, templateID string) (int, error)

	// DeleteTerminalJobsBefore removes completed and failed jobs whose
	// terminal timestamp is before the cutoff. Returns the removed count.
	DeleteTerminalJobsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// DeleteJobsByProfile removes all jobs for a profile, any status.
	// Part of the profile delete cascade. Returns the removed count.
	DeleteJobsByProfile(ctx context.Context, profileID string) (int, error)

	// Bulk operations
	ClearAll(ctx context.Context) error
}

// TemplateStorage - interface for prompt template persistence
type TemplateStorage interface {
	SaveTemplate(ctx context.Context, template *models.PromptTemplate) error
	GetTemplate(ctx context.Context, id string) (*models.PromptTemplate, error)
	GetByCategoryVersion(ctx context.Context, category models.TemplateCategory, version int) (*models.PromptTemplate, error)
	ListTemplates(ctx context.Context, category models.TemplateCategory) ([]*models.PromptTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
	CountTemplates(ctx context.Context) (int, error)

	// Bulk operations
	ClearAll(ctx context.Context) error
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	ProfileStorage() ProfileStorage
	OrganizationStorage() OrganizationStorage
	EdgeStorage() EdgeStorage
	ScoringJobStorage() ScoringJobStorage
	TemplateStorage() TemplateStorage
	DB() interface{}
	Close() error
}
