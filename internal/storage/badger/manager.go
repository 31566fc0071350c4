package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	profile      interfaces.ProfileStorage
	organization interfaces.OrganizationStorage
	edge         interfaces.EdgeStorage
	scoringJob   interfaces.ScoringJobStorage
	template     interfaces.TemplateStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		profile:      NewProfileStorage(db, logger),
		organization: NewOrganizationStorage(db, logger),
		edge:         NewEdgeStorage(db, logger),
		scoringJob:   NewScoringJobStorage(db, logger),
		template:     NewTemplateStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ProfileStorage returns the Profile storage interface
func (m *Manager) ProfileStorage() interfaces.ProfileStorage {
	return m.profile
}

// OrganizationStorage returns the Organization storage interface
func (m *Manager) OrganizationStorage() interfaces.OrganizationStorage {
	return m.organization
}

// EdgeStorage returns the profile-organization edge storage interface
func (m *Manager) EdgeStorage() interfaces.EdgeStorage {
	return m.edge
}

// ScoringJobStorage returns the ScoringJob storage interface
func (m *Manager) ScoringJobStorage() interfaces.ScoringJobStorage {
	return m.scoringJob
}

// TemplateStorage returns the PromptTemplate storage interface
func (m *Manager) TemplateStorage() interfaces.TemplateStorage {
	return m.template
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
