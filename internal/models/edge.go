// -----------------------------------------------------------------------
// Profile-Organization edge - one employment relationship with its
// date range and title; composite-keyed for idempotent upsert
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// ProfileOrganization links one profile to one organization with employment
// metadata. The record key is the composite (profile, organization, start
// year, start month) so boomerang employment produces distinct edges and
// re-ingestion upserts in place.
type ProfileOrganization struct {
	ID             string `json:"id" badgerhold:"key"`
	ProfileID      string `json:"profile_id" badgerhold:"index"`
	OrganizationID string `json:"organization_id" badgerhold:"index"`

	// Employment metadata copied from the matching experience entry.
	Title      string `json:"title,omitempty"`
	StartMonth string `json:"start_month,omitempty"`
	StartYear  int    `json:"start_year,omitempty"`
	EndMonth   string `json:"end_month,omitempty"`
	EndYear    int    `json:"end_year,omitempty"`
	IsCurrent  bool   `json:"is_current"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfileOrganization builds an edge from an experience entry. The id is
// derived, not random, so concurrent upserts of the same employment stanza
// collapse onto one row.
func NewProfileOrganization(profileID, organizationID string, exp Experience) *ProfileOrganization {
	now := time.Now().UTC()
	return &ProfileOrganization{
		ID:             EdgeKey(profileID, organizationID, exp.StartYear, exp.StartMonth),
		ProfileID:      profileID,
		OrganizationID: organizationID,
		Title:          exp.Title,
		StartMonth:     exp.StartMonth,
		StartYear:      exp.StartYear,
		EndMonth:       exp.EndMonth,
		EndYear:        exp.EndYear,
		IsCurrent:      exp.IsCurrent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// EdgeKey renders the composite uniqueness key. Month is normalized through
// MonthIndex so "Mar" and "3" produce the same edge.
func EdgeKey(profileID, organizationID string, startYear int, startMonth string) string {
	return fmt.Sprintf("%s|%s|%d|%02d", profileID, organizationID, startYear, MonthIndex(startMonth))
}
