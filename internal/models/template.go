// -----------------------------------------------------------------------
// Prompt Template - reusable, categorized evaluation prompt with versioning
// -----------------------------------------------------------------------

package models

import (
	"time"

	"github.com/google/uuid"
)

// TemplateCategory classifies evaluation prompts by the role they assess.
type TemplateCategory string

const (
	TemplateCategoryGeneral TemplateCategory = "general"
	TemplateCategoryCTO     TemplateCategory = "cto"
	TemplateCategoryCIO     TemplateCategory = "cio"
	TemplateCategoryCISO    TemplateCategory = "ciso"
	TemplateCategoryVPEng   TemplateCategory = "vp_engineering"
)

// TemplateCategories lists the accepted category values.
var TemplateCategories = []TemplateCategory{
	TemplateCategoryGeneral,
	TemplateCategoryCTO,
	TemplateCategoryCIO,
	TemplateCategoryCISO,
	TemplateCategoryVPEng,
}

// PromptTemplate is a stored evaluation prompt. (Category, Version) is
// unique; templates referenced by historical jobs are deactivated, never
// deleted.
type PromptTemplate struct {
	ID          string           `json:"id" badgerhold:"key"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Category    TemplateCategory `json:"category" badgerhold:"index"`
	Prompt      string           `json:"prompt"`
	Version     int              `json:"version"`
	IsActive    bool             `json:"is_active" badgerhold:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPromptTemplate creates an active version-1 template.
func NewPromptTemplate(name string, category TemplateCategory, prompt string) *PromptTemplate {
	now := time.Now().UTC()
	return &PromptTemplate{
		ID:        uuid.New().String(),
		Name:      name,
		Category:  category,
		Prompt:    prompt,
		Version:   1,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt to the current UTC time.
func (t *PromptTemplate) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// Validate checks required fields, category membership, and version range.
func (t *PromptTemplate) Validate() error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if t.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if t.Prompt == "" {
		return &ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	if t.Version < 1 {
		return &ValidationError{Field: "version", Message: "must be >= 1"}
	}
	if !ValidTemplateCategory(t.Category) {
		return &ValidationError{Field: "category", Message: "unknown category: " + string(t.Category)}
	}
	return nil
}

// ValidTemplateCategory reports whether c is one of the accepted categories.
func ValidTemplateCategory(c TemplateCategory) bool {
	for _, cat := range TemplateCategories {
		if cat == c {
			return true
		}
	}
	return false
}
