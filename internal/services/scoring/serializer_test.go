package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/persona/internal/models"
)

func serializerProfile() *models.Profile {
	p := models.NewProfile()
	p.FullName = "Jane Doe"
	p.Headline = "VP Engineering at Initech"
	p.City = "Sydney"
	p.Country = "Australia"
	p.About = "Engineering leader.\nSecond paragraph that must not appear."
	p.CurrentCompany = "Initech"
	p.CurrentPosition = "VP Engineering"
	p.FollowerCount = 2300
	p.ConnectionCount = 500
	p.Experiences = []models.Experience{
		{
			Title:              "VP Engineering",
			Company:            "Initech",
			CompanyLinkedInURL: "https://www.linkedin.com/company/initech/",
			StartMonth:         "Mar",
			StartYear:          2021,
			IsCurrent:          true,
			Description:        "Leading three platform teams.",
		},
		{
			Title:     "Engineering Manager",
			Company:   "Acme",
			StartYear: 2015,
			EndYear:   2021,
		},
	}
	p.Educations = []models.Education{
		{SchoolName: "University of Sydney", Degree: "BSc", FieldOfStudy: "Computer Science", StartYear: 2004, EndYear: 2008},
	}
	return p
}

func serializerOrgs() map[string]*models.Organization {
	org := models.NewOrganization()
	org.Name = "Initech"
	org.URLNormalized = "https://linkedin.com/company/initech"
	org.Industries = []string{"Software"}
	org.EmployeeRange = "201-500"
	org.Description = "Initech builds workflow software.\nFounded long ago."
	return map[string]*models.Organization{org.URLNormalized: org}
}

func TestSerializeProfile_Deterministic(t *testing.T) {
	profile := serializerProfile()
	orgs := serializerOrgs()

	first := SerializeProfile(profile, orgs)
	second := SerializeProfile(profile, orgs)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "Name: Jane Doe")
	assert.Contains(t, first, "Location: Sydney, Australia")
	assert.Contains(t, first, "Current role: VP Engineering at Initech")
	assert.Contains(t, first, "About: Engineering leader.")
	assert.NotContains(t, first, "Second paragraph")

	assert.Contains(t, first, "- VP Engineering at Initech (Mar 2021 - present)")
	assert.Contains(t, first, "Company: Software; 201-500 employees; Initech builds workflow software.")
	assert.Contains(t, first, "- Engineering Manager at Acme (2015 - 2021)")
	assert.Contains(t, first, "- BSc, University of Sydney (Computer Science) (2004 - 2008)")
	assert.Contains(t, first, "Followers: 2300")
	assert.Contains(t, first, "Connections: 500")
}

func TestSerializeProfile_PartialDates(t *testing.T) {
	profile := models.NewProfile()
	profile.FullName = "John Roe"
	profile.Experiences = []models.Experience{
		{Title: "Consultant", Company: "Freelance"},
		{Title: "Analyst", Company: "Bank", EndYear: 2012},
		{Title: "Intern", Company: "Lab", StartMonth: "Jun", StartYear: 2009},
	}

	out := SerializeProfile(profile, nil)
	assert.Contains(t, out, "- Consultant at Freelance\n")
	assert.Contains(t, out, "- Analyst at Bank (unknown - 2012)")
	assert.Contains(t, out, "- Intern at Lab (Jun 2009 - unknown)")
}

func TestSerializeProfile_TruncatesDescriptions(t *testing.T) {
	profile := models.NewProfile()
	profile.FullName = "John Roe"
	profile.Experiences = []models.Experience{
		{Title: "Engineer", Company: "Acme", Description: strings.Repeat("x", 400)},
	}

	out := SerializeProfile(profile, nil)
	assert.Contains(t, out, strings.Repeat("x", descriptionLimit)+"...")
	assert.NotContains(t, out, strings.Repeat("x", descriptionLimit+1))
}

func TestRenderPrompt_Placeholders(t *testing.T) {
	profile := serializerProfile()
	serialized := SerializeProfile(profile, nil)

	prompt := "Evaluate {{full_name}} ({{current_position}} at {{current_company}}).\n\nData:\n{{profile_json}}"
	rendered := RenderPrompt(prompt, profile, serialized)

	assert.Contains(t, rendered, "Evaluate Jane Doe (VP Engineering at Initech).")
	assert.Contains(t, rendered, serialized)
	assert.Equal(t, 1, strings.Count(rendered, "Followers: 2300"), "profile block must not be appended twice")
}

func TestRenderPrompt_AppendsProfileWhenNotReferenced(t *testing.T) {
	profile := serializerProfile()
	serialized := SerializeProfile(profile, nil)

	rendered := RenderPrompt("Score this candidate from 0 to 100.", profile, serialized)
	assert.True(t, strings.HasPrefix(rendered, "Score this candidate"))
	assert.Contains(t, rendered, "Profile data:\n")
	assert.Contains(t, rendered, serialized)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare text", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced with tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFences(tc.in))
		})
	}
}

func TestParseScoreObject(t *testing.T) {
	parsed, err := parseScoreObject("```json\n{\"score\": 82, \"strengths\": [\"scaling\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, float64(82), parsed["score"])

	_, err = parseScoreObject("[1, 2, 3]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")

	_, err = parseScoreObject(`"just a string"`)
	require.Error(t, err)

	_, err = parseScoreObject("the model rambled instead of answering")
	require.Error(t, err)

	_, err = parseScoreObject("")
	require.Error(t, err)
}
