package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TemplateStorage implements the TemplateStorage interface for Badger
type TemplateStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTemplateStorage creates a new TemplateStorage instance
func NewTemplateStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TemplateStorage {
	return &TemplateStorage{
		db:     db,
		logger: logger,
	}
}

// SaveTemplate upserts a template. Badger has no composite unique
// constraint, so the (Category, Version) pair is checked here before the
// write.
func (s *TemplateStorage) SaveTemplate(ctx context.Context, template *models.PromptTemplate) error {
	if template.ID == "" {
		return fmt.Errorf("template ID is required")
	}
	if err := template.Validate(); err != nil {
		return err
	}

	existing, err := s.findByCategoryVersion(template.Category, template.Version)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != template.ID {
		return &models.ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("version %d already exists for category %s", template.Version, template.Category),
		}
	}

	if err := s.db.Store().Upsert(template.ID, template); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

func (s *TemplateStorage) GetTemplate(ctx context.Context, id string) (*models.PromptTemplate, error) {
	var template models.PromptTemplate
	if err := s.db.Store().Get(id, &template); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "template", ID: id}
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

func (s *TemplateStorage) GetByCategoryVersion(ctx context.Context, category models.TemplateCategory, version int) (*models.PromptTemplate, error) {
	template, err := s.findByCategoryVersion(category, version)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, &models.NotFoundError{Resource: "template", ID: fmt.Sprintf("%s/v%d", category, version)}
	}
	return template, nil
}

// ListTemplates returns templates sorted by category then version. An
// empty category returns every template.
func (s *TemplateStorage) ListTemplates(ctx context.Context, category models.TemplateCategory) ([]*models.PromptTemplate, error) {
	var query *badgerhold.Query
	if category != "" {
		query = badgerhold.Where("Category").Eq(category).Index("Category").SortBy("Version")
	} else {
		query = badgerhold.Where("ID").Ne("").SortBy("Category", "Version")
	}

	var templates []models.PromptTemplate
	if err := s.db.Store().Find(&templates, query); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	result := make([]*models.PromptTemplate, len(templates))
	for i := range templates {
		result[i] = &templates[i]
	}
	return result, nil
}

func (s *TemplateStorage) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.PromptTemplate{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.NotFoundError{Resource: "template", ID: id}
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *TemplateStorage) CountTemplates(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.PromptTemplate{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return int(count), nil
}

func (s *TemplateStorage) ClearAll(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.PromptTemplate{}, nil)
}

func (s *TemplateStorage) findByCategoryVersion(category models.TemplateCategory, version int) (*models.PromptTemplate, error) {
	var templates []models.PromptTemplate
	err := s.db.Store().Find(&templates, badgerhold.Where("Category").Eq(category).Index("Category").And("Version").Eq(version))
	if err != nil {
		return nil, fmt.Errorf("failed to find template by category and version: %w", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}
	return &templates[0], nil
}
