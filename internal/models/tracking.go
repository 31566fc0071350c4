// -----------------------------------------------------------------------
// Ingestion request tracking - in-process lifecycle snapshots exposed by
// the request tracker; never persisted
// -----------------------------------------------------------------------

package models

import "time"

// IngestionState is the lifecycle state of one tracked ingestion request.
type IngestionState string

const (
	IngestionStateRunning   IngestionState = "running"
	IngestionStateCompleted IngestionState = "completed"
	IngestionStateFailed    IngestionState = "failed"
)

// Progress stages reported while a request moves through the orchestrator.
const (
	StageProfileFetch      = "profile_fetch"
	StageOrganizationFetch = "organization_fetch"
	StageCompleted         = "completed"
)

// IngestionTotalSteps is the coarse step count backing {step, total_steps}.
const IngestionTotalSteps = 3

// IngestionStatus is the tracker snapshot for one ingestion request.
type IngestionStatus struct {
	RequestID   string         `json:"request_id"`
	LinkedInURL string         `json:"linkedin_url"`
	State       IngestionState `json:"state"`

	// Coarse progress: Stage names the phase, Step/TotalSteps render it.
	Stage      string `json:"stage"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`

	// Set once the profile row exists.
	ProfileID string `json:"profile_id,omitempty"`

	// Organization enrichment counters.
	OrganizationsRequested  int `json:"organizations_requested"`
	OrganizationsSuccessful int `json:"organizations_successful"`
	OrganizationsLinked     int `json:"organizations_linked"`

	// Failure detail, present only when State is failed.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
}

// StageStep maps a stage name to its ordinal for {step, total_steps}.
func StageStep(stage string) int {
	switch stage {
	case StageProfileFetch:
		return 1
	case StageOrganizationFetch:
		return 2
	case StageCompleted:
		return 3
	default:
		return 0
	}
}

// IsTerminal reports whether the request reached a final state.
func (s *IngestionStatus) IsTerminal() bool {
	return s.State == IngestionStateCompleted || s.State == IngestionStateFailed
}

// Clone returns a copy safe to hand to callers.
func (s *IngestionStatus) Clone() *IngestionStatus {
	clone := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		clone.CompletedAt = &t
	}
	return &clone
}
