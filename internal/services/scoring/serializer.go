package scoring

import (
	"fmt"
	"strings"

	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/models"
)

// descriptionLimit truncates free-text descriptions in the serialized
// view so one verbose entry cannot dominate the model's context.
const descriptionLimit = 200

// profilePlaceholders are the substitutions supported in prompt text.
// {{profile_json}} and {{profile_data}} both take the serialized block;
// when a prompt names neither, the block is appended after the prompt.
var profilePlaceholders = []string{
	"{{profile_json}}",
	"{{profile_data}}",
	"{{profile}}",
}

// SerializeProfile renders a profile into the text block sent to the
// model. Output depends only on the stored profile and the supplied
// organizations (keyed by normalized URL), in stored order, so the same
// job input always produces the same model input.
func SerializeProfile(profile *models.Profile, orgsByURL map[string]*models.Organization) string {
	var b strings.Builder

	writeField(&b, "Name", profile.FullName)
	writeField(&b, "Headline", profile.Headline)
	writeField(&b, "Location", profileLocation(profile))
	writeField(&b, "Current role", currentRole(profile))
	writeField(&b, "About", oneLine(profile.About))

	if len(profile.Experiences) > 0 {
		b.WriteString("\nEXPERIENCE\n")
		for _, exp := range profile.Experiences {
			writeExperience(&b, exp, orgsByURL)
		}
	}

	if len(profile.Educations) > 0 {
		b.WriteString("\nEDUCATION\n")
		for _, edu := range profile.Educations {
			writeEducation(&b, edu)
		}
	}

	if len(profile.Certifications) > 0 {
		b.WriteString("\nCERTIFICATIONS\n")
		for _, cert := range profile.Certifications {
			fmt.Fprintf(&b, "- %s\n", cert)
		}
	}

	b.WriteString("\nMETRICS\n")
	fmt.Fprintf(&b, "Followers: %d\n", profile.FollowerCount)
	fmt.Fprintf(&b, "Connections: %d\n", profile.ConnectionCount)

	return b.String()
}

// RenderPrompt substitutes the profile placeholders into the prompt text.
// Prompts that reference no profile placeholder get the serialized block
// appended, so the model always sees the profile.
func RenderPrompt(prompt string, profile *models.Profile, serialized string) string {
	hasProfileBlock := false
	for _, p := range profilePlaceholders {
		if strings.Contains(prompt, p) {
			hasProfileBlock = true
			break
		}
	}

	replacer := strings.NewReplacer(
		"{{full_name}}", profile.FullName,
		"{{headline}}", profile.Headline,
		"{{location}}", profileLocation(profile),
		"{{current_position}}", profile.CurrentPosition,
		"{{current_company}}", profile.CurrentCompany,
		"{{profile_json}}", serialized,
		"{{profile_data}}", serialized,
		"{{profile}}", serialized,
	)
	rendered := replacer.Replace(prompt)

	if !hasProfileBlock {
		rendered = rendered + "\n\nProfile data:\n" + serialized
	}
	return rendered
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func writeExperience(b *strings.Builder, exp models.Experience, orgsByURL map[string]*models.Organization) {
	line := exp.Title
	if line == "" {
		line = "(untitled role)"
	}
	if exp.Company != "" {
		line += " at " + exp.Company
	}
	if r := dateRange(exp.StartMonth, exp.StartYear, exp.EndMonth, exp.EndYear, exp.IsCurrent); r != "" {
		line += " (" + r + ")"
	}
	fmt.Fprintf(b, "- %s\n", line)

	if org := lookupOrganization(exp.CompanyLinkedInURL, orgsByURL); org != nil {
		if detail := organizationLine(org); detail != "" {
			fmt.Fprintf(b, "  Company: %s\n", detail)
		}
	}
	if desc := oneLine(exp.Description); desc != "" {
		fmt.Fprintf(b, "  %s\n", desc)
	}
}

func writeEducation(b *strings.Builder, edu models.Education) {
	line := edu.SchoolName
	if edu.Degree != "" {
		line = edu.Degree + ", " + line
	}
	if edu.FieldOfStudy != "" {
		line += " (" + edu.FieldOfStudy + ")"
	}
	if edu.StartYear > 0 || edu.EndYear > 0 {
		line += " " + yearRange(edu.StartYear, edu.EndYear)
	}
	fmt.Fprintf(b, "- %s\n", line)
}

// organizationLine condenses a linked organization to industry, size and
// one line of description.
func organizationLine(org *models.Organization) string {
	parts := []string{}
	if len(org.Industries) > 0 {
		parts = append(parts, strings.Join(org.Industries, "/"))
	}
	switch {
	case org.EmployeeRange != "":
		parts = append(parts, org.EmployeeRange+" employees")
	case org.EmployeeCount > 0:
		parts = append(parts, fmt.Sprintf("%d employees", org.EmployeeCount))
	}
	if desc := oneLine(org.Description); desc != "" {
		parts = append(parts, desc)
	}
	return strings.Join(parts, "; ")
}

func lookupOrganization(rawURL string, orgsByURL map[string]*models.Organization) *models.Organization {
	if rawURL == "" || len(orgsByURL) == 0 {
		return nil
	}
	normalized, err := common.NormalizeURL(rawURL)
	if err != nil {
		return nil
	}
	return orgsByURL[normalized]
}

// dateRange renders the employment window, tolerating partial dates.
func dateRange(startMonth string, startYear int, endMonth string, endYear int, current bool) string {
	start := monthYear(startMonth, startYear)
	end := monthYear(endMonth, endYear)
	if current {
		end = "present"
	}
	switch {
	case start == "" && end == "":
		return ""
	case start == "":
		start = "unknown"
	case end == "":
		end = "unknown"
	}
	return start + " - " + end
}

func monthYear(month string, year int) string {
	if year <= 0 {
		return ""
	}
	if month == "" {
		return fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%s %d", month, year)
}

func yearRange(startYear, endYear int) string {
	switch {
	case startYear > 0 && endYear > 0:
		return fmt.Sprintf("(%d - %d)", startYear, endYear)
	case startYear > 0:
		return fmt.Sprintf("(%d)", startYear)
	default:
		return fmt.Sprintf("(%d)", endYear)
	}
}

// oneLine collapses a free-text field to its first non-empty line,
// truncated to descriptionLimit runes.
func oneLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > descriptionLimit {
			return string(runes[:descriptionLimit]) + "..."
		}
		return line
	}
	return ""
}

func profileLocation(profile *models.Profile) string {
	if profile.Location != "" {
		return profile.Location
	}
	parts := []string{}
	for _, p := range []string{profile.City, profile.State, profile.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func currentRole(profile *models.Profile) string {
	switch {
	case profile.CurrentPosition != "" && profile.CurrentCompany != "":
		return profile.CurrentPosition + " at " + profile.CurrentCompany
	case profile.CurrentPosition != "":
		return profile.CurrentPosition
	case profile.CurrentCompany != "":
		return profile.CurrentCompany
	default:
		return ""
	}
}
