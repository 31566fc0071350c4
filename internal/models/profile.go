// -----------------------------------------------------------------------
// Canonical Profile - strict internal representation of one public
// professional identity, decoupled from any upstream payload shape
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is the canonical record for one public professional identity.
// LinkedInURLNormalized is the authoritative dedup key; no two rows may
// share it. Experiences and Educations preserve upstream order, which is
// most-recent-first and relied on by downstream consumers.
type Profile struct {
	// Identity
	ID                    string `json:"id" badgerhold:"key"`
	LinkedInID            string `json:"linkedin_id"`         // External profile id from the workflow payload
	PublicID              string `json:"public_id,omitempty"` // Public handle (e.g. "jane-doe-123")
	LinkedInURL           string `json:"linkedin_url"`
	LinkedInURLNormalized string `json:"linkedin_url_normalized" badgerhold:"index"`
	URN                   string `json:"urn,omitempty"`

	// Personal
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name"`
	Headline  string `json:"headline,omitempty"`
	About     string `json:"about,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`

	// Location
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
	Location string `json:"location,omitempty"` // Free-form rendering from upstream

	// Contact
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Ordered lists (upstream order preserved, most recent first)
	Experiences    []Experience `json:"experiences"`
	Educations     []Education  `json:"educations"`
	Certifications []string     `json:"certifications"`
	Languages      []string     `json:"languages"`

	// Social metrics
	FollowerCount   int `json:"follower_count"`
	ConnectionCount int `json:"connection_count"`

	// Current employment snapshot. Denormalized for listing and scoring;
	// the authoritative organization record lives in Organization.
	CurrentCompany          string `json:"current_company,omitempty"`
	CurrentPosition         string `json:"current_position,omitempty"`
	CurrentCompanyJoinMonth string `json:"current_company_join_month,omitempty"`
	CurrentCompanyJoinYear  int    `json:"current_company_join_year,omitempty"`
	CurrentJobDuration      string `json:"current_job_duration,omitempty"`

	// Flags
	IsPremium    bool `json:"is_premium"`
	IsCreator    bool `json:"is_creator"`
	IsInfluencer bool `json:"is_influencer"`
	IsVerified   bool `json:"is_verified"`

	// Timestamps (always UTC)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Experience is one employment entry nested inside a profile.
// CompanyLinkedInURL may be empty; entries without it never produce an
// organization edge.
type Experience struct {
	Title              string   `json:"title"`
	Company            string   `json:"company,omitempty"` // Display name as given upstream
	CompanyLinkedInURL string   `json:"company_linkedin_url,omitempty"`
	Location           string   `json:"location,omitempty"`
	StartMonth         string   `json:"start_month,omitempty"`
	StartYear          int      `json:"start_year,omitempty"`
	EndMonth           string   `json:"end_month,omitempty"`
	EndYear            int      `json:"end_year,omitempty"`
	IsCurrent          bool     `json:"is_current"`
	JobType            string   `json:"job_type,omitempty"` // full_time, part_time, contract, ...
	Skills             []string `json:"skills,omitempty"`
	Description        string   `json:"description,omitempty"`
}

// Education is one schooling entry nested inside a profile.
type Education struct {
	SchoolName   string `json:"school_name"`
	SchoolURL    string `json:"school_url,omitempty"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	StartYear    int    `json:"start_year,omitempty"`
	EndYear      int    `json:"end_year,omitempty"`
	Activities   string `json:"activities,omitempty"`
}

// EnrichedProfile pairs a canonical profile with the organizations fetched
// for its experiences during one ingestion. Organizations is ordered to
// match the distinct organization URLs derived from the experiences; a nil
// slot records an organization that could not be fetched or canonicalized.
type EnrichedProfile struct {
	Profile       *Profile        `json:"profile"`
	Organizations []*Organization `json:"organizations"`
}

// NewProfile creates a canonical profile with a fresh id and UTC timestamps.
// List fields are initialized empty so serialized output never carries null
// where a list is declared.
func NewProfile() *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:             uuid.New().String(),
		Experiences:    []Experience{},
		Educations:     []Education{},
		Certifications: []string{},
		Languages:      []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Touch bumps UpdatedAt to the current UTC time.
func (p *Profile) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// Validate checks the invariants the store cannot enforce: required fields,
// employment date ordering, and non-nil list fields.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if p.FullName == "" {
		return &ValidationError{Field: "full_name", Message: "must not be empty"}
	}
	if p.LinkedInURL == "" {
		return &ValidationError{Field: "linkedin_url", Message: "must not be empty"}
	}
	if p.LinkedInURLNormalized == "" {
		return &ValidationError{Field: "linkedin_url_normalized", Message: "must not be empty"}
	}
	for i, exp := range p.Experiences {
		if err := exp.Validate(); err != nil {
			return fmt.Errorf("experience[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate enforces start <= end when both endpoints are present. Partial
// dates (month without year, year without month) are accepted as given.
func (e *Experience) Validate() error {
	if e.StartYear > 0 && e.EndYear > 0 {
		if e.StartYear > e.EndYear {
			return &ValidationError{Field: "start_year", Message: "start date after end date"}
		}
		if e.StartYear == e.EndYear {
			sm, em := MonthIndex(e.StartMonth), MonthIndex(e.EndMonth)
			if sm > 0 && em > 0 && sm > em {
				return &ValidationError{Field: "start_month", Message: "start date after end date"}
			}
		}
	}
	return nil
}

// MergeFrom folds incoming into p with non-null-wins semantics: scalars are
// replaced only when incoming has a value, list fields only when incoming is
// non-empty. Identity fields and CreatedAt are never overwritten. UpdatedAt
// is bumped unconditionally so re-ingestion is observable.
func (p *Profile) MergeFrom(incoming *Profile) {
	if incoming.LinkedInID != "" {
		p.LinkedInID = incoming.LinkedInID
	}
	if incoming.PublicID != "" {
		p.PublicID = incoming.PublicID
	}
	if incoming.URN != "" {
		p.URN = incoming.URN
	}
	if incoming.FirstName != "" {
		p.FirstName = incoming.FirstName
	}
	if incoming.LastName != "" {
		p.LastName = incoming.LastName
	}
	if incoming.FullName != "" {
		p.FullName = incoming.FullName
	}
	if incoming.Headline != "" {
		p.Headline = incoming.Headline
	}
	if incoming.About != "" {
		p.About = incoming.About
	}
	if incoming.ImageURL != "" {
		p.ImageURL = incoming.ImageURL
	}
	if incoming.City != "" {
		p.City = incoming.City
	}
	if incoming.State != "" {
		p.State = incoming.State
	}
	if incoming.Country != "" {
		p.Country = incoming.Country
	}
	if incoming.Location != "" {
		p.Location = incoming.Location
	}
	if incoming.Email != "" {
		p.Email = incoming.Email
	}
	if incoming.Phone != "" {
		p.Phone = incoming.Phone
	}
	if len(incoming.Experiences) > 0 {
		p.Experiences = incoming.Experiences
	}
	if len(incoming.Educations) > 0 {
		p.Educations = incoming.Educations
	}
	if len(incoming.Certifications) > 0 {
		p.Certifications = incoming.Certifications
	}
	if len(incoming.Languages) > 0 {
		p.Languages = incoming.Languages
	}
	if incoming.FollowerCount > 0 {
		p.FollowerCount = incoming.FollowerCount
	}
	if incoming.ConnectionCount > 0 {
		p.ConnectionCount = incoming.ConnectionCount
	}
	if incoming.CurrentCompany != "" {
		p.CurrentCompany = incoming.CurrentCompany
	}
	if incoming.CurrentPosition != "" {
		p.CurrentPosition = incoming.CurrentPosition
	}
	if incoming.CurrentCompanyJoinMonth != "" {
		p.CurrentCompanyJoinMonth = incoming.CurrentCompanyJoinMonth
	}
	if incoming.CurrentCompanyJoinYear > 0 {
		p.CurrentCompanyJoinYear = incoming.CurrentCompanyJoinYear
	}
	if incoming.CurrentJobDuration != "" {
		p.CurrentJobDuration = incoming.CurrentJobDuration
	}
	if incoming.IsPremium {
		p.IsPremium = true
	}
	if incoming.IsCreator {
		p.IsCreator = true
	}
	if incoming.IsInfluencer {
		p.IsInfluencer = true
	}
	if incoming.IsVerified {
		p.IsVerified = true
	}
	p.Touch()
}

// Clone returns a deep copy safe to hand to callers.
func (p *Profile) Clone() *Profile {
	clone := *p
	clone.Experiences = make([]Experience, len(p.Experiences))
	copy(clone.Experiences, p.Experiences)
	for i := range clone.Experiences {
		if len(p.Experiences[i].Skills) > 0 {
			clone.Experiences[i].Skills = append([]string(nil), p.Experiences[i].Skills...)
		}
	}
	clone.Educations = append([]Education(nil), p.Educations...)
	clone.Certifications = append([]string(nil), p.Certifications...)
	clone.Languages = append([]string(nil), p.Languages...)
	return &clone
}

// MonthIndex maps a month rendering to 1..12, accepting numeric strings and
// English month names or prefixes ("3", "Mar", "march"). Returns 0 when the
// value is absent or unrecognized.
func MonthIndex(month string) int {
	m := strings.ToLower(strings.TrimSpace(month))
	if m == "" {
		return 0
	}
	if n, err := strconv.Atoi(m); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
		return 0
	}
	names := []string{"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december"}
	for i, name := range names {
		if strings.HasPrefix(name, m) && len(m) >= 3 {
			return i + 1
		}
	}
	return 0
}
