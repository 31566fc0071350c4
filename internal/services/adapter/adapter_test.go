package adapter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/persona/internal/models"
)

// decode mimics what the workflow client produces: JSON through
// map[string]interface{}, so numbers arrive as float64.
func decode(t *testing.T, raw string) models.RawPayload {
	t.Helper()
	var payload models.RawPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestProfileFromPayload_FullMapping(t *testing.T) {
	payload := decode(t, `{
		"linkedin_id": "jd-123",
		"public_id": "jane-doe-123",
		"full_name": "Jane Doe",
		"first_name": "Jane",
		"last_name": "Doe",
		"headline": "CTO at Acme",
		"about": "Engineering leader.",
		"linkedin_url": "https://WWW.LinkedIn.com/in/jane-doe/",
		"city": "Berlin",
		"country": "Germany",
		"email": "jane@example.com",
		"follower_count": 1200,
		"connection_count": "500",
		"is_premium": true,
		"is_verified": true,
		"languages": ["English", "German"],
		"experiences": [
			{
				"title": "CTO",
				"company": "Acme",
				"company_linkedin_url": "https://linkedin.com/company/acme",
				"start_month": "Mar",
				"start_year": 2021,
				"is_current": true,
				"skills": ["Go", "Leadership"]
			},
			{
				"title": "Staff Engineer",
				"company": "Globex",
				"start_year": 2016,
				"end_year": 2021
			}
		],
		"educations": [
			{"school_name": "TU Berlin", "degree": "MSc", "field_of_study": "CS", "end_year": 2010}
		],
		"current_company": "Acme",
		"current_position": "CTO"
	}`)

	profile, err := ProfileFromPayload(payload)
	require.NoError(t, err)

	assert.Equal(t, "jd-123", profile.LinkedInID)
	assert.Equal(t, "Jane Doe", profile.FullName)
	assert.Equal(t, "https://WWW.LinkedIn.com/in/jane-doe/", profile.LinkedInURL)
	assert.Equal(t, "https://linkedin.com/in/jane-doe", profile.LinkedInURLNormalized)
	assert.Equal(t, "jane-doe-123", profile.PublicID)
	assert.Equal(t, "CTO at Acme", profile.Headline)
	assert.Equal(t, "Berlin", profile.City)
	assert.Equal(t, 1200, profile.FollowerCount)
	assert.Equal(t, 500, profile.ConnectionCount, "numeric strings are tolerated")
	assert.True(t, profile.IsPremium)
	assert.True(t, profile.IsVerified)
	assert.False(t, profile.IsCreator)
	assert.Equal(t, []string{"English", "German"}, profile.Languages)

	// Upstream ordering is preserved exactly, most recent first
	require.Len(t, profile.Experiences, 2)
	assert.Equal(t, "CTO", profile.Experiences[0].Title)
	assert.True(t, profile.Experiences[0].IsCurrent)
	assert.Equal(t, []string{"Go", "Leadership"}, profile.Experiences[0].Skills)
	assert.Equal(t, "Staff Engineer", profile.Experiences[1].Title)

	require.Len(t, profile.Educations, 1)
	assert.Equal(t, "TU Berlin", profile.Educations[0].SchoolName)
	assert.Equal(t, 2010, profile.Educations[0].EndYear)

	assert.Equal(t, "Acme", profile.CurrentCompany)
	assert.Equal(t, "CTO", profile.CurrentPosition)
	assert.NotEmpty(t, profile.ID)
}

func TestProfileFromPayload_MissingEssentials(t *testing.T) {
	payload := decode(t, `{"headline": "CTO", "city": "Berlin"}`)

	_, err := ProfileFromPayload(payload)
	require.Error(t, err)

	var incomplete *models.IncompleteDataError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "profile", incomplete.Entity)
	assert.ElementsMatch(t, []string{"linkedin_id", "full_name", "linkedin_url"}, incomplete.MissingFields)
}

func TestProfileFromPayload_EmptyEssentialCountsAsMissing(t *testing.T) {
	payload := decode(t, `{"linkedin_id": "jd-1", "full_name": "", "linkedin_url": "https://linkedin.com/in/x"}`)

	_, err := ProfileFromPayload(payload)
	var incomplete *models.IncompleteDataError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"full_name"}, incomplete.MissingFields)
}

func TestProfileFromPayload_AlternateKeys(t *testing.T) {
	// Older workflow versions send id/name/url and numeric ids
	payload := decode(t, `{"id": 98765, "name": "John Roe", "url": "https://linkedin.com/in/john-roe"}`)

	profile, err := ProfileFromPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "98765", profile.LinkedInID)
	assert.Equal(t, "John Roe", profile.FullName)
	assert.Equal(t, "https://linkedin.com/in/john-roe", profile.LinkedInURLNormalized)
}

func TestProfileFromPayload_CurrentSnapshotBackfill(t *testing.T) {
	payload := decode(t, `{
		"linkedin_id": "jd-1",
		"full_name": "Jane Doe",
		"linkedin_url": "https://linkedin.com/in/jane-doe",
		"experiences": [
			{"title": "VP Engineering", "company": "Initech", "start_month": "Jun", "start_year": 2022, "is_current": true},
			{"title": "Engineer", "company": "Acme", "start_year": 2018, "end_year": 2022}
		]
	}`)

	profile, err := ProfileFromPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "Initech", profile.CurrentCompany)
	assert.Equal(t, "VP Engineering", profile.CurrentPosition)
	assert.Equal(t, "Jun", profile.CurrentCompanyJoinMonth)
	assert.Equal(t, 2022, profile.CurrentCompanyJoinYear)
}

func TestProfileFromPayload_Deterministic(t *testing.T) {
	payload := decode(t, `{"linkedin_id": "jd-1", "full_name": "Jane Doe", "linkedin_url": "https://linkedin.com/in/jane-doe", "headline": "CTO"}`)

	first, err := ProfileFromPayload(payload)
	require.NoError(t, err)
	second, err := ProfileFromPayload(payload)
	require.NoError(t, err)

	// Internal id and timestamps are assigned per call; every mapped field
	// must match
	first.ID, second.ID = "", ""
	first.CreatedAt, second.CreatedAt = time.Time{}, time.Time{}
	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
}

func TestOrganizationFromPayload_FullMapping(t *testing.T) {
	payload := decode(t, `{
		"name": "Acme Corp",
		"company_id": "acme-1",
		"linkedin_url": "https://www.linkedin.com/company/acme/?ref=share",
		"tagline": "We build everything",
		"website": "https://acme.example.com",
		"industries": ["Software", "Robotics"],
		"specialties": ["Go", "Distributed Systems"],
		"employee_count": 5200,
		"employee_range": "5001-10000",
		"follower_count": 90000,
		"year_founded": 1999,
		"headquarters": {"city": "Vienna", "country": "Austria", "full_address": "Ringstrasse 1, Vienna"}
	}`)

	org, err := OrganizationFromPayload(payload)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, "acme-1", org.LinkedInID)
	assert.Equal(t, "https://linkedin.com/company/acme", org.URLNormalized, "query and www are stripped")
	assert.Equal(t, []string{"Software", "Robotics"}, org.Industries)
	assert.Equal(t, 5200, org.EmployeeCount)
	assert.Equal(t, "5001-10000", org.EmployeeRange)
	assert.Equal(t, 1999, org.YearFounded)
	require.NotNil(t, org.Headquarters)
	assert.Equal(t, "Vienna", org.Headquarters.City)
	assert.Equal(t, "Austria", org.Headquarters.Country)
}

func TestOrganizationFromPayload_MissingName(t *testing.T) {
	payload := decode(t, `{"linkedin_url": "https://linkedin.com/company/mystery"}`)

	_, err := OrganizationFromPayload(payload)
	var incomplete *models.IncompleteDataError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "organization", incomplete.Entity)
	assert.Equal(t, []string{"name"}, incomplete.MissingFields)
}

func TestOrganizationFromPayload_LooseFields(t *testing.T) {
	payload := decode(t, `{
		"company_name": "Globex",
		"industry": "Energy",
		"company_size": "not-a-bucket",
		"employee_count": -5
	}`)

	org, err := OrganizationFromPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "Globex", org.Name)
	assert.Equal(t, []string{"Energy"}, org.Industries, "singular industry becomes a one-element list")
	assert.Empty(t, org.EmployeeRange, "unknown buckets are dropped")
	assert.Zero(t, org.EmployeeCount, "negative counts are treated as absent")
}
