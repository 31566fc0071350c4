// Package adapter maps raw workflow service payloads onto canonical
// records. Mapping is pure: the same payload always produces the same
// record, and nothing is fabricated for absent fields.
package adapter

import (
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/models"
)

// fieldSpec ties one canonical path to its candidate raw keys. The first
// key present in the payload wins; the upstream service is not consistent
// about key naming across workflow versions.
type fieldSpec struct {
	canonical string
	rawKeys   []string
}

// Essential fields. A payload missing any of these cannot become a
// canonical record.
var (
	profileEssentials = []fieldSpec{
		{"linkedin_id", []string{"linkedin_id", "id"}},
		{"full_name", []string{"full_name", "name"}},
		{"linkedin_url", []string{"linkedin_url", "url", "input_url"}},
	}

	organizationEssentials = []fieldSpec{
		{"name", []string{"name", "company_name"}},
	}
)

// ProfileFromPayload builds a canonical profile from a raw workflow reply.
// Returns IncompleteDataError naming the canonical paths of any missing
// essential fields.
func ProfileFromPayload(payload models.RawPayload) (*models.Profile, error) {
	if err := checkEssentials("profile", payload, profileEssentials); err != nil {
		return nil, err
	}

	p := models.NewProfile()
	p.LinkedInID, _ = firstString(payload, "linkedin_id", "id")
	p.FullName, _ = firstString(payload, "full_name", "name")
	p.LinkedInURL, _ = firstString(payload, "linkedin_url", "url", "input_url")
	p.LinkedInURLNormalized = normalizeOrKeep(p.LinkedInURL)

	p.PublicID, _ = firstString(payload, "public_id", "public_identifier")
	p.URN, _ = payload.String("urn")
	p.FirstName, _ = payload.String("first_name")
	p.LastName, _ = payload.String("last_name")
	p.Headline, _ = payload.String("headline")
	p.About, _ = firstString(payload, "about", "summary")
	p.ImageURL, _ = firstString(payload, "image_url", "profile_image_url")

	p.City, _ = payload.String("city")
	p.State, _ = payload.String("state")
	p.Country, _ = payload.String("country")
	p.Location, _ = payload.String("location")

	p.Email, _ = payload.String("email")
	p.Phone, _ = payload.String("phone")

	if entries, ok := payload.Slice("experiences"); ok {
		p.Experiences = make([]models.Experience, 0, len(entries))
		for _, entry := range entries {
			p.Experiences = append(p.Experiences, experienceFromPayload(entry))
		}
	}
	if entries, ok := payload.Slice("educations"); ok {
		p.Educations = make([]models.Education, 0, len(entries))
		for _, entry := range entries {
			p.Educations = append(p.Educations, educationFromPayload(entry))
		}
	}
	p.Certifications, _ = payload.StringSlice("certifications")
	p.Languages, _ = payload.StringSlice("languages")

	p.FollowerCount = nonNegative(payload, "follower_count")
	p.ConnectionCount = nonNegative(payload, "connection_count")

	p.CurrentCompany, _ = payload.String("current_company")
	p.CurrentPosition, _ = firstString(payload, "current_position", "current_job_title")
	p.CurrentCompanyJoinMonth, _ = payload.String("current_company_join_month")
	p.CurrentCompanyJoinYear, _ = payload.Int("current_company_join_year")
	p.CurrentJobDuration, _ = payload.String("current_job_duration")
	fillCurrentFromExperience(p)

	p.IsPremium, _ = payload.Bool("is_premium")
	p.IsCreator, _ = payload.Bool("is_creator")
	p.IsInfluencer, _ = payload.Bool("is_influencer")
	p.IsVerified, _ = payload.Bool("is_verified")

	return p, nil
}

// OrganizationFromPayload builds a canonical organization from a raw
// workflow reply.
func OrganizationFromPayload(payload models.RawPayload) (*models.Organization, error) {
	if err := checkEssentials("organization", payload, organizationEssentials); err != nil {
		return nil, err
	}

	o := models.NewOrganization()
	o.Name, _ = firstString(payload, "name", "company_name")
	o.LinkedInID, _ = firstString(payload, "linkedin_id", "company_id", "id")
	o.URL, _ = firstString(payload, "linkedin_url", "url", "input_url")
	o.URLNormalized = normalizeOrKeep(o.URL)

	o.Tagline, _ = payload.String("tagline")
	o.Description, _ = payload.String("description")
	o.Website, _ = payload.String("website")
	o.Domain, _ = payload.String("domain")
	o.LogoURL, _ = firstString(payload, "logo_url", "logo")
	if year, ok := firstInt(payload, "year_founded", "founded"); ok && year > 0 {
		o.YearFounded = year
	}

	if industries, ok := payload.StringSlice("industries"); ok {
		o.Industries = industries
	} else if industry, ok := payload.String("industry"); ok {
		o.Industries = []string{industry}
	}
	o.Specialties, _ = payload.StringSlice("specialties")

	o.EmployeeCount = nonNegative(payload, "employee_count")
	if bucket, ok := firstString(payload, "employee_range", "company_size"); ok && models.ValidEmployeeRange(bucket) {
		o.EmployeeRange = bucket
	}
	o.FollowerCount = nonNegative(payload, "follower_count")

	if hq, ok := payload.Map("headquarters"); ok {
		o.Headquarters = headquartersFromPayload(hq)
	}

	o.Email, _ = payload.String("email")
	o.Phone, _ = payload.String("phone")

	return o, nil
}

func experienceFromPayload(entry models.RawPayload) models.Experience {
	exp := models.Experience{}
	exp.Title, _ = entry.String("title")
	exp.Company, _ = firstString(entry, "company", "company_name")
	exp.CompanyLinkedInURL, _ = firstString(entry, "company_linkedin_url", "company_url")
	exp.Location, _ = entry.String("location")
	exp.StartMonth, _ = entry.String("start_month")
	exp.StartYear, _ = entry.Int("start_year")
	exp.EndMonth, _ = entry.String("end_month")
	exp.EndYear, _ = entry.Int("end_year")
	exp.IsCurrent, _ = entry.Bool("is_current")
	exp.JobType, _ = firstString(entry, "job_type", "employment_type")
	exp.Skills, _ = entry.StringSlice("skills")
	exp.Description, _ = entry.String("description")
	return exp
}

func educationFromPayload(entry models.RawPayload) models.Education {
	edu := models.Education{}
	edu.SchoolName, _ = firstString(entry, "school_name", "school")
	edu.SchoolURL, _ = entry.String("school_url")
	edu.Degree, _ = entry.String("degree")
	edu.FieldOfStudy, _ = entry.String("field_of_study")
	edu.StartYear, _ = entry.Int("start_year")
	edu.EndYear, _ = entry.Int("end_year")
	edu.Activities, _ = entry.String("activities")
	return edu
}

func headquartersFromPayload(hq models.RawPayload) *models.Headquarters {
	h := &models.Headquarters{}
	h.Street, _ = hq.String("street")
	h.City, _ = hq.String("city")
	h.State, _ = hq.String("state")
	h.Country, _ = hq.String("country")
	h.PostalCode, _ = hq.String("postal_code")
	h.FullAddress, _ = hq.String("full_address")
	return h
}

// fillCurrentFromExperience backfills the current-employment snapshot from
// the first experience flagged current when the payload omits the
// denormalized copy.
func fillCurrentFromExperience(p *models.Profile) {
	if p.CurrentCompany != "" && p.CurrentPosition != "" {
		return
	}
	for i := range p.Experiences {
		exp := &p.Experiences[i]
		if !exp.IsCurrent {
			continue
		}
		if p.CurrentCompany == "" {
			p.CurrentCompany = exp.Company
		}
		if p.CurrentPosition == "" {
			p.CurrentPosition = exp.Title
		}
		if p.CurrentCompanyJoinMonth == "" {
			p.CurrentCompanyJoinMonth = exp.StartMonth
		}
		if p.CurrentCompanyJoinYear == 0 {
			p.CurrentCompanyJoinYear = exp.StartYear
		}
		return
	}
}

func checkEssentials(entity string, payload models.RawPayload, specs []fieldSpec) error {
	var missing []string
	for _, spec := range specs {
		if _, ok := firstString(payload, spec.rawKeys...); !ok {
			missing = append(missing, spec.canonical)
		}
	}
	if len(missing) > 0 {
		return &models.IncompleteDataError{Entity: entity, MissingFields: missing}
	}
	return nil
}

func firstString(payload models.RawPayload, keys ...string) (string, bool) {
	for _, key := range keys {
		if val, ok := payload.String(key); ok {
			return val, true
		}
	}
	return "", false
}

func firstInt(payload models.RawPayload, keys ...string) (int, bool) {
	for _, key := range keys {
		if val, ok := payload.Int(key); ok {
			return val, true
		}
	}
	return 0, false
}

func nonNegative(payload models.RawPayload, key string) int {
	val, ok := payload.Int(key)
	if !ok || val < 0 {
		return 0
	}
	return val
}

// normalizeOrKeep normalizes a URL for dedup, keeping the raw value when it
// does not parse so the record still round-trips what upstream sent.
func normalizeOrKeep(raw string) string {
	if raw == "" {
		return ""
	}
	normalized, err := common.NormalizeURL(raw)
	if err != nil {
		return raw
	}
	return normalized
}
