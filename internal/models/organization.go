// -----------------------------------------------------------------------
// Canonical Organization - company/employer record referenced by profiles
// through employment edges; never references profiles directly
// -----------------------------------------------------------------------

package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee range buckets as rendered by the upstream workflow service.
var EmployeeRanges = []string{
	"1-10",
	"11-50",
	"51-200",
	"201-500",
	"501-1000",
	"1001-5000",
	"5001-10000",
	"10001+",
}

// Organization is the canonical record for a company. URLNormalized is the
// dedup key; organizations created without a URL (name-only references) may
// later acquire one through fuzzy name matching during upsert.
type Organization struct {
	// Identity
	ID            string `json:"id" badgerhold:"key"`
	LinkedInID    string `json:"linkedin_id,omitempty"` // External organization id
	URL           string `json:"url,omitempty"`
	URLNormalized string `json:"url_normalized,omitempty" badgerhold:"index"`

	// Descriptive
	Name        string `json:"name"`
	Tagline     string `json:"tagline,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Domain      string `json:"domain,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	YearFounded int    `json:"year_founded,omitempty"`

	// Classification
	Industries  []string `json:"industries"`
	Specialties []string `json:"specialties"`

	// Scale
	EmployeeCount int    `json:"employee_count"`
	EmployeeRange string `json:"employee_range,omitempty"`
	FollowerCount int    `json:"follower_count"`

	// Headquarters
	Headquarters *Headquarters `json:"headquarters,omitempty"`

	// Contact
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Timestamps (always UTC)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Headquarters is the structured address plus the upstream free-form line.
type Headquarters struct {
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	FullAddress string `json:"full_address,omitempty"`
}

// NewOrganization creates a canonical organization with a fresh id, UTC
// timestamps, and empty list fields.
func NewOrganization() *Organization {
	now := time.Now().UTC()
	return &Organization{
		ID:          uuid.New().String(),
		Industries:  []string{},
		Specialties: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch bumps UpdatedAt to the current UTC time.
func (o *Organization) Touch() {
	o.UpdatedAt = time.Now().UTC()
}

// Validate checks required fields and bucket membership.
func (o *Organization) Validate() error {
	if o.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if o.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if o.EmployeeCount < 0 {
		return &ValidationError{Field: "employee_count", Message: "must not be negative"}
	}
	if o.EmployeeRange != "" && !ValidEmployeeRange(o.EmployeeRange) {
		return &ValidationError{Field: "employee_range", Message: "unknown bucket: " + o.EmployeeRange}
	}
	return nil
}

// ValidEmployeeRange reports whether bucket is one of the known ranges.
func ValidEmployeeRange(bucket string) bool {
	for _, r := range EmployeeRanges {
		if r == bucket {
			return true
		}
	}
	return false
}

// MergeFrom folds incoming into o with non-null-wins semantics on scalars
// and replace-if-non-empty on lists. The id and CreatedAt are preserved;
// UpdatedAt is bumped unconditionally.
func (o *Organization) MergeFrom(incoming *Organization) {
	if incoming.LinkedInID != "" {
		o.LinkedInID = incoming.LinkedInID
	}
	if incoming.URL != "" {
		o.URL = incoming.URL
	}
	if incoming.URLNormalized != "" {
		o.URLNormalized = incoming.URLNormalized
	}
	if incoming.Name != "" {
		o.Name = incoming.Name
	}
	if incoming.Tagline != "" {
		o.Tagline = incoming.Tagline
	}
	if incoming.Description != "" {
		o.Description = incoming.Description
	}
	if incoming.Website != "" {
		o.Website = incoming.Website
	}
	if incoming.Domain != "" {
		o.Domain = incoming.Domain
	}
	if incoming.LogoURL != "" {
		o.LogoURL = incoming.LogoURL
	}
	if incoming.YearFounded > 0 {
		o.YearFounded = incoming.YearFounded
	}
	if len(incoming.Industries) > 0 {
		o.Industries = incoming.Industries
	}
	if len(incoming.Specialties) > 0 {
		o.Specialties = incoming.Specialties
	}
	if incoming.EmployeeCount > 0 {
		o.EmployeeCount = incoming.EmployeeCount
	}
	if incoming.EmployeeRange != "" {
		o.EmployeeRange = incoming.EmployeeRange
	}
	if incoming.FollowerCount > 0 {
		o.FollowerCount = incoming.FollowerCount
	}
	if incoming.Headquarters != nil {
		if o.Headquarters == nil {
			o.Headquarters = incoming.Headquarters
		} else {
			o.Headquarters.mergeFrom(incoming.Headquarters)
		}
	}
	if incoming.Email != "" {
		o.Email = incoming.Email
	}
	if incoming.Phone != "" {
		o.Phone = incoming.Phone
	}
	o.Touch()
}

func (h *Headquarters) mergeFrom(incoming *Headquarters) {
	if incoming.Street != "" {
		h.Street = incoming.Street
	}
	if incoming.City != "" {
		h.City = incoming.City
	}
	if incoming.State != "" {
		h.State = incoming.State
	}
	if incoming.Country != "" {
		h.Country = incoming.Country
	}
	if incoming.PostalCode != "" {
		h.PostalCode = incoming.PostalCode
	}
	if incoming.FullAddress != "" {
		h.FullAddress = incoming.FullAddress
	}
}

// Clone returns a deep copy safe to hand to callers.
func (o *Organization) Clone() *Organization {
	clone := *o
	clone.Industries = append([]string(nil), o.Industries...)
	clone.Specialties = append([]string(nil), o.Specialties...)
	if o.Headquarters != nil {
		hq := *o.Headquarters
		clone.Headquarters = &hq
	}
	return &clone
}
