package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// TemplateService manages stored prompt templates. Each (category, version)
// pair is unique; creating a template in an occupied category assigns the
// next version.
type TemplateService interface {
	CreateTemplate(ctx context.Context, req *models.TemplateRequest) (*models.PromptTemplate, error)
	GetTemplate(ctx context.Context, id string) (*models.PromptTemplate, error)
	ListTemplates(ctx context.Context, category models.TemplateCategory) ([]*models.PromptTemplate, error)

	// UpdateTemplate applies the request to an existing template. A prompt
	// change bumps the version so historical jobs keep pointing at the
	// text they ran with.
	UpdateTemplate(ctx context.Context, id string, req *models.TemplateRequest) (*models.PromptTemplate, error)

	DeleteTemplate(ctx context.Context, id string) error

	// ResolveForScoring picks the template a scoring job should use:
	// by explicit id when given, otherwise the newest active template in
	// the category.
	ResolveForScoring(ctx context.Context, templateID string, category models.TemplateCategory) (*models.PromptTemplate, error)

	// SeedDefaults inserts the built-in templates for categories that have
	// none. Never overwrites user templates.
	SeedDefaults(ctx context.Context) error
}
