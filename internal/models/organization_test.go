package models

import (
	"testing"
)

// TestOrganization_MergeFrom verifies non-null-wins on scalars and
// replace-if-non-empty on lists
func TestOrganization_MergeFrom(t *testing.T) {
	existing := NewOrganization()
	existing.Name = "Acme"
	existing.Description = "Widgets."
	existing.EmployeeCount = 250
	existing.Industries = []string{"Manufacturing"}
	existing.Headquarters = &Headquarters{City: "Sydney"}

	incoming := NewOrganization()
	incoming.Name = "Acme Corporation"
	incoming.Tagline = "We make widgets"
	incoming.Industries = nil
	incoming.Specialties = []string{"widgets", "gadgets"}
	incoming.Headquarters = &Headquarters{Country: "Australia"}

	existing.MergeFrom(incoming)

	if existing.Name != "Acme Corporation" {
		t.Errorf("incoming name should win, got %q", existing.Name)
	}
	if existing.Tagline != "We make widgets" {
		t.Errorf("missing tagline should be filled, got %q", existing.Tagline)
	}
	if existing.Description != "Widgets." {
		t.Errorf("empty incoming description clobbered existing: %q", existing.Description)
	}
	if existing.EmployeeCount != 250 {
		t.Errorf("zero incoming count clobbered employee count: %d", existing.EmployeeCount)
	}
	if len(existing.Industries) != 1 || existing.Industries[0] != "Manufacturing" {
		t.Errorf("empty incoming list clobbered industries: %v", existing.Industries)
	}
	if len(existing.Specialties) != 2 {
		t.Errorf("non-empty incoming list should replace specialties: %v", existing.Specialties)
	}
	if existing.Headquarters.City != "Sydney" || existing.Headquarters.Country != "Australia" {
		t.Errorf("headquarters merge wrong: %+v", existing.Headquarters)
	}
}

// TestOrganization_MergeIdempotent verifies merging an unchanged payload
// changes nothing but updated_at
func TestOrganization_MergeIdempotent(t *testing.T) {
	org := NewOrganization()
	org.Name = "Acme"
	org.URL = "https://linkedin.com/company/acme"
	org.URLNormalized = "https://linkedin.com/company/acme"
	org.Industries = []string{"Software"}

	snapshot := org.Clone()
	org.MergeFrom(snapshot)

	if org.Name != snapshot.Name || org.URL != snapshot.URL {
		t.Error("idempotent merge mutated scalar fields")
	}
	if len(org.Industries) != 1 || org.Industries[0] != "Software" {
		t.Error("idempotent merge mutated list fields")
	}
}

// TestOrganization_Validate verifies required fields and bucket membership
func TestOrganization_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Organization)
		shouldError bool
	}{
		{
			name:   "minimal valid organization",
			mutate: func(o *Organization) {},
		},
		{
			name:        "missing name",
			mutate:      func(o *Organization) { o.Name = "" },
			shouldError: true,
		},
		{
			name:        "negative employee count",
			mutate:      func(o *Organization) { o.EmployeeCount = -1 },
			shouldError: true,
		},
		{
			name:   "known employee range",
			mutate: func(o *Organization) { o.EmployeeRange = "51-200" },
		},
		{
			name:        "unknown employee range",
			mutate:      func(o *Organization) { o.EmployeeRange = "about fifty" },
			shouldError: true,
		},
		{
			name:   "empty employee range accepted",
			mutate: func(o *Organization) { o.EmployeeRange = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org := NewOrganization()
			org.Name = "Acme"
			tt.mutate(org)
			err := org.Validate()
			if tt.shouldError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestValidTemplateCategory verifies category membership checks
func TestValidTemplateCategory(t *testing.T) {
	if !ValidTemplateCategory(TemplateCategoryCTO) {
		t.Error("cto should be a valid category")
	}
	if ValidTemplateCategory("janitor") {
		t.Error("unknown category accepted")
	}

	tmpl := NewPromptTemplate("CTO evaluation", TemplateCategoryCTO, "Rate this profile.")
	if err := tmpl.Validate(); err != nil {
		t.Errorf("valid template rejected: %v", err)
	}

	tmpl.Category = "janitor"
	if err := tmpl.Validate(); err == nil {
		t.Error("invalid category passed validation")
	}
}
