// Package templates manages stored evaluation prompts. Templates are
// versioned per category; a prompt edit creates a new version so scoring
// jobs that recorded a template id keep pointing at the text they ran
// with. Templates referenced by historical jobs are deactivated instead
// of deleted.
package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// Service implements prompt template management.
type Service struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

var _ interfaces.TemplateService = (*Service)(nil)

// NewService creates a new template service.
func NewService(storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// CreateTemplate stores a new template. The version is assigned as the
// next free version in the category, so concurrent creates in the same
// category never collide on (category, version).
func (s *Service) CreateTemplate(ctx context.Context, req *models.TemplateRequest) (*models.PromptTemplate, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	category := models.TemplateCategory(req.Category)
	template := models.NewPromptTemplate(strings.TrimSpace(req.Name), category, req.Prompt)
	template.Description = strings.TrimSpace(req.Description)
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	version, err := s.nextVersion(ctx, category)
	if err != nil {
		return nil, err
	}
	template.Version = version

	if err := s.storage.TemplateStorage().SaveTemplate(ctx, template); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("template_id", template.ID).
		Str("category", string(template.Category)).
		Int("version", template.Version).
		Msg("Template created")

	return template, nil
}

// GetTemplate returns a template by id.
func (s *Service) GetTemplate(ctx context.Context, id string) (*models.PromptTemplate, error) {
	if id == "" {
		return nil, &models.ValidationError{Field: "id", Message: "must not be empty"}
	}
	return s.storage.TemplateStorage().GetTemplate(ctx, id)
}

// ListTemplates returns templates, optionally filtered by category.
func (s *Service) ListTemplates(ctx context.Context, category models.TemplateCategory) ([]*models.PromptTemplate, error) {
	if category != "" && !models.ValidTemplateCategory(category) {
		return nil, &models.ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("unknown category %q", category),
		}
	}
	return s.storage.TemplateStorage().ListTemplates(ctx, category)
}

// UpdateTemplate applies the request to an existing template. Name,
// description and active flag update in place; a prompt change bumps the
// version. The category of a template never changes.
func (s *Service) UpdateTemplate(ctx context.Context, id string, req *models.TemplateRequest) (*models.PromptTemplate, error) {
	if id == "" {
		return nil, &models.ValidationError{Field: "id", Message: "must not be empty"}
	}
	if req == nil {
		return nil, &models.ValidationError{Field: "body", Message: "must not be empty"}
	}

	template, err := s.storage.TemplateStorage().GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Category != "" && models.TemplateCategory(req.Category) != template.Category {
		return nil, &models.ValidationError{
			Field:   "category",
			Message: "category cannot be changed; create a new template instead",
		}
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		template.Name = name
	}
	if req.Description != "" {
		template.Description = strings.TrimSpace(req.Description)
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if req.Prompt != "" && req.Prompt != template.Prompt {
		version, err := s.nextVersion(ctx, template.Category)
		if err != nil {
			return nil, err
		}
		template.Prompt = req.Prompt
		template.Version = version
	}

	template.Touch()
	if err := s.storage.TemplateStorage().SaveTemplate(ctx, template); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("template_id", template.ID).
		Int("version", template.Version).
		Msg("Template updated")

	return template, nil
}

// DeleteTemplate removes a template. A template recorded by any scoring
// job is deactivated instead, so job history stays resolvable.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if id == "" {
		return &models.ValidationError{Field: "id", Message: "must not be empty"}
	}

	template, err := s.storage.TemplateStorage().GetTemplate(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.storage.ScoringJobStorage().CountJobsByTemplate(ctx, id)
	if err != nil {
		return err
	}
	if referenced > 0 {
		template.IsActive = false
		template.Touch()
		if err := s.storage.TemplateStorage().SaveTemplate(ctx, template); err != nil {
			return err
		}
		s.logger.Info().
			Str("template_id", id).
			Int("referencing_jobs", referenced).
			Msg("Template deactivated instead of deleted")
		return nil
	}

	if err := s.storage.TemplateStorage().DeleteTemplate(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("template_id", id).Msg("Template deleted")
	return nil
}

// ResolveForScoring picks the template a scoring job should use. An
// explicit id wins and resolves even when inactive, since the caller
// named it. Category resolution picks the newest active version.
func (s *Service) ResolveForScoring(ctx context.Context, templateID string, category models.TemplateCategory) (*models.PromptTemplate, error) {
	if templateID != "" {
		return s.storage.TemplateStorage().GetTemplate(ctx, templateID)
	}

	if category == "" {
		category = models.TemplateCategoryGeneral
	}
	if !models.ValidTemplateCategory(category) {
		return nil, &models.ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("unknown category %q", category),
		}
	}

	candidates, err := s.storage.TemplateStorage().ListTemplates(ctx, category)
	if err != nil {
		return nil, err
	}

	var best *models.PromptTemplate
	for _, t := range candidates {
		if !t.IsActive {
			continue
		}
		if best == nil || t.Version > best.Version {
			best = t
		}
	}
	if best == nil {
		return nil, &models.NotFoundError{Resource: "template", ID: string(category)}
	}
	return best, nil
}

// SeedDefaults inserts the built-in templates into categories that have
// none. Categories already holding templates are left alone, so user
// edits survive restarts.
func (s *Service) SeedDefaults(ctx context.Context) error {
	seeded := 0
	for _, def := range common.GetDefaultTemplates() {
		category := models.TemplateCategory(def.Category)

		existing, err := s.storage.TemplateStorage().ListTemplates(ctx, category)
		if err != nil {
			return fmt.Errorf("failed to check category %s before seeding: %w", category, err)
		}
		if len(existing) > 0 {
			continue
		}

		template := models.NewPromptTemplate(def.Name, category, def.Prompt)
		template.Description = def.Description
		if err := s.storage.TemplateStorage().SaveTemplate(ctx, template); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", def.Name, err)
		}
		seeded++
	}

	if seeded > 0 {
		s.logger.Info().Int("count", seeded).Msg("Seeded default templates")
	}
	return nil
}

// nextVersion returns one past the highest version stored for the
// category, starting at 1 for an empty category.
func (s *Service) nextVersion(ctx context.Context, category models.TemplateCategory) (int, error) {
	existing, err := s.storage.TemplateStorage().ListTemplates(ctx, category)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, t := range existing {
		if t.Version > highest {
			highest = t.Version
		}
	}
	return highest + 1, nil
}

// validateRequest checks the caller-supplied fields for template creation.
func validateRequest(req *models.TemplateRequest) error {
	if req == nil {
		return &models.ValidationError{Field: "body", Message: "must not be empty"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return &models.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return &models.ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	if req.Category == "" {
		return &models.ValidationError{Field: "category", Message: "must not be empty"}
	}
	if !models.ValidTemplateCategory(models.TemplateCategory(req.Category)) {
		return &models.ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("unknown category %q", req.Category),
		}
	}
	return nil
}
