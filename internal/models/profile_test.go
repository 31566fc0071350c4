package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

// TestMonthIndex verifies month rendering normalization
func TestMonthIndex(t *testing.T) {
	tests := []struct {
		name     string
		month    string
		expected int
	}{
		{
			name:     "numeric month",
			month:    "3",
			expected: 3,
		},
		{
			name:     "numeric month with whitespace",
			month:    " 11 ",
			expected: 11,
		},
		{
			name:     "short name",
			month:    "Mar",
			expected: 3,
		},
		{
			name:     "full name lowercase",
			month:    "september",
			expected: 9,
		},
		{
			name:     "full name mixed case",
			month:    "December",
			expected: 12,
		},
		{
			name:     "empty",
			month:    "",
			expected: 0,
		},
		{
			name:     "out of range numeric",
			month:    "13",
			expected: 0,
		},
		{
			name:     "zero",
			month:    "0",
			expected: 0,
		},
		{
			name:     "garbage",
			month:    "soon",
			expected: 0,
		},
		{
			name:     "too short prefix",
			month:    "ma",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MonthIndex(tt.month)
			if result != tt.expected {
				t.Errorf("MonthIndex(%q) = %d, want %d", tt.month, result, tt.expected)
			}
		})
	}
}

// TestExperience_Validate verifies employment date ordering
func TestExperience_Validate(t *testing.T) {
	tests := []struct {
		name        string
		exp         Experience
		shouldError bool
	}{
		{
			name: "start before end",
			exp:  Experience{Title: "Engineer", StartYear: 2018, EndYear: 2021},
		},
		{
			name:        "start after end",
			exp:         Experience{Title: "Engineer", StartYear: 2022, EndYear: 2020},
			shouldError: true,
		},
		{
			name: "same year months ordered",
			exp:  Experience{Title: "Engineer", StartMonth: "Feb", StartYear: 2021, EndMonth: "Nov", EndYear: 2021},
		},
		{
			name:        "same year months reversed",
			exp:         Experience{Title: "Engineer", StartMonth: "Nov", StartYear: 2021, EndMonth: "Feb", EndYear: 2021},
			shouldError: true,
		},
		{
			name: "month without year accepted",
			exp:  Experience{Title: "Engineer", StartMonth: "Jan"},
		},
		{
			name: "open ended current role",
			exp:  Experience{Title: "Engineer", StartYear: 2020, IsCurrent: true},
		},
		{
			name: "no dates at all",
			exp:  Experience{Title: "Engineer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.exp.Validate()
			if tt.shouldError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestProfile_MergeFrom verifies non-null-wins merge semantics
func TestProfile_MergeFrom(t *testing.T) {
	existing := NewProfile()
	existing.FullName = "Jane Doe"
	existing.Headline = "CTO at Acme"
	existing.City = "Sydney"
	existing.FollowerCount = 500
	existing.Experiences = []Experience{{Title: "CTO", Company: "Acme"}}
	createdAt := existing.CreatedAt
	beforeMerge := existing.UpdatedAt

	incoming := NewProfile()
	incoming.FullName = "Jane A. Doe"
	incoming.About = "Technology leader."
	incoming.FollowerCount = 0
	incoming.Experiences = nil

	time.Sleep(5 * time.Millisecond)
	existing.MergeFrom(incoming)

	if existing.FullName != "Jane A. Doe" {
		t.Errorf("expected incoming full name to win, got %q", existing.FullName)
	}
	if existing.About != "Technology leader." {
		t.Errorf("expected missing field to be filled, got %q", existing.About)
	}
	if existing.Headline != "CTO at Acme" {
		t.Errorf("empty incoming field clobbered headline: %q", existing.Headline)
	}
	if existing.City != "Sydney" {
		t.Errorf("empty incoming field clobbered city: %q", existing.City)
	}
	if existing.FollowerCount != 500 {
		t.Errorf("zero incoming count clobbered follower count: %d", existing.FollowerCount)
	}
	if len(existing.Experiences) != 1 {
		t.Errorf("empty incoming list clobbered experiences: %d entries", len(existing.Experiences))
	}
	if !existing.CreatedAt.Equal(createdAt) {
		t.Error("merge must not rewrite created_at")
	}
	if !existing.UpdatedAt.After(beforeMerge) {
		t.Error("merge must bump updated_at")
	}
}

// TestProfile_RoundTrip verifies serialize -> parse -> equal
func TestProfile_RoundTrip(t *testing.T) {
	p := NewProfile()
	p.LinkedInID = "ext-123"
	p.PublicID = "jane-doe"
	p.LinkedInURL = "https://www.linkedin.com/in/jane-doe/"
	p.LinkedInURLNormalized = "https://linkedin.com/in/jane-doe"
	p.FullName = "Jane Doe"
	p.FirstName = "Jane"
	p.LastName = "Doe"
	p.Headline = "CTO"
	p.City = "Sydney"
	p.Country = "Australia"
	p.FollowerCount = 1200
	p.ConnectionCount = 500
	p.IsVerified = true
	p.Experiences = []Experience{
		{
			Title:              "CTO",
			Company:            "Acme",
			CompanyLinkedInURL: "https://linkedin.com/company/acme",
			StartMonth:         "Mar",
			StartYear:          2020,
			IsCurrent:          true,
			Skills:             []string{"go", "leadership"},
		},
		{
			Title:     "Engineer",
			Company:   "Initech",
			StartYear: 2015,
			EndYear:   2020,
		},
	}
	p.Educations = []Education{
		{SchoolName: "UNSW", Degree: "BSc", FieldOfStudy: "CS", StartYear: 2010, EndYear: 2014},
	}
	p.Languages = []string{"English"}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var parsed Profile
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(p, &parsed) {
		t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", parsed, *p)
	}
}

// TestProfile_EmptyListsSerializeAsArrays verifies list fields never render null
func TestProfile_EmptyListsSerializeAsArrays(t *testing.T) {
	p := NewProfile()
	p.FullName = "Jane Doe"

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, field := range []string{"experiences", "educations", "certifications", "languages"} {
		val, ok := generic[field]
		if !ok {
			t.Errorf("field %s missing from serialized profile", field)
			continue
		}
		if _, isList := val.([]interface{}); !isList {
			t.Errorf("field %s serialized as %T, want array", field, val)
		}
	}
}

// TestProfile_Clone verifies the copy shares no mutable state
func TestProfile_Clone(t *testing.T) {
	p := NewProfile()
	p.FullName = "Jane Doe"
	p.Experiences = []Experience{{Title: "CTO", Skills: []string{"go"}}}
	p.Languages = []string{"English"}

	clone := p.Clone()
	clone.Experiences[0].Title = "CEO"
	clone.Experiences[0].Skills[0] = "rust"
	clone.Languages[0] = "French"

	if p.Experiences[0].Title != "CTO" {
		t.Error("clone shares experience slice with original")
	}
	if p.Experiences[0].Skills[0] != "go" {
		t.Error("clone shares skills slice with original")
	}
	if p.Languages[0] != "English" {
		t.Error("clone shares languages slice with original")
	}
}
