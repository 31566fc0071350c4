// Package common provides shared utilities and default configuration.
package common

// DefaultTemplate represents a prompt template seeded on startup.
type DefaultTemplate struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// GetDefaultTemplates returns the list of prompt templates seeded on startup.
// This is the single source of truth for default templates. Seeding never
// overwrites templates a user has already created or edited.
func GetDefaultTemplates() []DefaultTemplate {
	return []DefaultTemplate{
		{
			Name:        "General Fit",
			Category:    "general",
			Description: "Baseline candidate evaluation against no specific role",
			Prompt: `You are an executive recruiter evaluating a candidate profile.

Candidate: {{full_name}}
Headline: {{headline}}
Location: {{location}}
Current role: {{current_position}} at {{current_company}}

Profile data:
{{profile_json}}

Score the candidate from 0 to 100 on overall seniority, career trajectory and
breadth of experience. Respond with JSON only, no prose, in the form:
{"score": <0-100>, "strengths": [...], "concerns": [...], "summary": "..."}`,
		},
		{
			Name:        "CTO Readiness",
			Category:    "cto",
			Description: "Evaluates readiness for a Chief Technology Officer role",
			Prompt: `You are assessing whether a candidate is ready for a CTO position.

Candidate: {{full_name}}
Headline: {{headline}}
Current role: {{current_position}} at {{current_company}}

Profile data:
{{profile_json}}

Weigh hands-on technical depth, team scaling experience, and board-level
communication. Respond with JSON only:
{"score": <0-100>, "technical_depth": <0-10>, "leadership": <0-10>, "strengths": [...], "concerns": [...], "summary": "..."}`,
		},
		{
			Name:        "CIO Readiness",
			Category:    "cio",
			Description: "Evaluates readiness for a Chief Information Officer role",
			Prompt: `You are assessing whether a candidate is ready for a CIO position.

Candidate: {{full_name}}
Headline: {{headline}}
Current role: {{current_position}} at {{current_company}}

Profile data:
{{profile_json}}

Weigh enterprise IT governance, vendor management, budget ownership and
digital transformation experience. Respond with JSON only:
{"score": <0-100>, "governance": <0-10>, "transformation": <0-10>, "strengths": [...], "concerns": [...], "summary": "..."}`,
		},
		{
			Name:        "CISO Readiness",
			Category:    "ciso",
			Description: "Evaluates readiness for a Chief Information Security Officer role",
			Prompt: `You are assessing whether a candidate is ready for a CISO position.

Candidate: {{full_name}}
Headline: {{headline}}
Current role: {{current_position}} at {{current_company}}

Profile data:
{{profile_json}}

Weigh security program ownership, incident response leadership, compliance
coverage and security team building. Respond with JSON only:
{"score": <0-100>, "security_depth": <0-10>, "program_leadership": <0-10>, "strengths": [...], "concerns": [...], "summary": "..."}`,
		},
		{
			Name:        "VP Engineering Readiness",
			Category:    "vp_engineering",
			Description: "Evaluates readiness for a VP of Engineering role",
			Prompt: `You are assessing whether a candidate is ready for a VP of Engineering position.

Candidate: {{full_name}}
Headline: {{headline}}
Current role: {{current_position}} at {{current_company}}

Profile data:
{{profile_json}}

Weigh delivery track record, organisation design, hiring experience and
engineering process maturity. Respond with JSON only:
{"score": <0-100>, "delivery": <0-10>, "org_building": <0-10>, "strengths": [...], "concerns": [...], "summary": "..."}`,
		},
	}
}
