package models

// IngestRequest is the body of a profile ingestion request. The company
// flag is a pointer so an omitted field defaults to true.
type IngestRequest struct {
	LinkedInURL      string `json:"linkedin_url" validate:"required"`
	IncludeCompanies *bool  `json:"include_companies,omitempty"`

	// RequestID lets callers supply their own tracking id; one is
	// generated when absent.
	RequestID string `json:"request_id,omitempty"`
}

// IncludeOrganizations reports whether organization enrichment was
// requested. An omitted flag means yes.
func (r *IngestRequest) IncludeOrganizations() bool {
	return r.IncludeCompanies == nil || *r.IncludeCompanies
}

// IngestResult is the outcome of an ingestion request. For synchronous
// ingestion the profile and linked organizations are populated; for async
// ingestion only the request id and the initial status snapshot are set.
type IngestResult struct {
	RequestID     string           `json:"request_id"`
	Async         bool             `json:"async"`
	Status        *IngestionStatus `json:"status,omitempty"`
	Profile       *Profile         `json:"profile,omitempty"`
	Organizations []*Organization  `json:"organizations,omitempty"`
}

// ScoreRequest is the body of a scoring job creation request. Exactly one
// prompt source applies: an explicit prompt, a template id, or a category
// (which resolves to the newest active template). An empty request falls
// back to the general category.
type ScoreRequest struct {
	Prompt      string   `json:"prompt,omitempty"`
	TemplateID  string   `json:"template_id,omitempty"`
	Category    string   `json:"category,omitempty"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// TemplateRequest is the body for creating or updating a prompt template.
type TemplateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Prompt      string `json:"prompt"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// ProfileListQuery carries the listing parameters as the API received
// them, before sort aliases are resolved to stored field names.
type ProfileListQuery struct {
	// LinkedInURL filters to an exact profile URL; it is normalized
	// before matching.
	LinkedInURL string
	// Name and Company filter as case-insensitive substrings.
	Name    string
	Company string

	SortBy  string
	SortDir string
	Limit   int
	Offset  int
}

// Pagination describes the window of a list response.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ProfilePage is one page of a profile listing.
type ProfilePage struct {
	Profiles   []*Profile `json:"profiles"`
	Pagination Pagination `json:"pagination"`
}

// OrganizationDetail is a company read with its membership count.
type OrganizationDetail struct {
	Organization   *Organization `json:"organization"`
	LinkedProfiles int           `json:"linked_profiles"`
}

// ErrorResponse is the envelope every non-2xx API response carries.
type ErrorResponse struct {
	ErrorCode   string                 `json:"error_code"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
}
