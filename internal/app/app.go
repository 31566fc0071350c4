package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/handlers"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/services/health"
	"github.com/ternarybob/persona/internal/services/ingestion"
	"github.com/ternarybob/persona/internal/services/llm"
	"github.com/ternarybob/persona/internal/services/organizations"
	"github.com/ternarybob/persona/internal/services/profiles"
	"github.com/ternarybob/persona/internal/services/scoring"
	"github.com/ternarybob/persona/internal/services/templates"
	"github.com/ternarybob/persona/internal/services/tracking"
	"github.com/ternarybob/persona/internal/services/workflow"
	"github.com/ternarybob/persona/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Ingestion pipeline
	WorkflowClient      interfaces.WorkflowClient
	Tracker             interfaces.TrackerService
	OrganizationService interfaces.OrganizationService
	IngestionService    interfaces.IngestionService
	ProfileService      interfaces.ProfileService

	// Scoring pipeline
	TemplateService interfaces.TemplateService
	LLMService      interfaces.LLMService
	ScoringService  interfaces.ScoringService

	// Health service
	HealthService interfaces.HealthService

	// HTTP handlers
	ProfileHandler  *handlers.ProfileHandler
	CompanyHandler  *handlers.CompanyHandler
	ScoringHandler  *handlers.ScoringHandler
	TemplateHandler *handlers.TemplateHandler
	HealthHandler   *handlers.HealthHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Context for background loops (tracker eviction, scoring workers)
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	// Start background work AFTER all handlers are initialized so nothing
	// observes a half-wired application.
	app.Tracker.Start(app.ctx)
	if err := app.ScoringService.Start(app.ctx); err != nil {
		return nil, fmt.Errorf("failed to start scoring workers: %w", err)
	}

	// Log initialization summary
	provider := "disabled"
	if app.LLMService != nil {
		provider = app.LLMService.Provider()
	}
	logger.Info().
		Str("llm_provider", provider).
		Bool("async_ingestion", cfg.Ingestion.EnableAsyncProcessing).
		Bool("company_ingestion", cfg.Ingestion.EnableCompanyIngestion).
		Int("scoring_workers", cfg.Scoring.Workers).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order.
func (a *App) initServices() error {
	// 1. Workflow client for the upstream LinkedIn fetch endpoints
	a.WorkflowClient = workflow.NewClient(&a.Config.LinkedIn)
	a.Logger.Debug().
		Str("profile_url", a.Config.LinkedIn.ProfileWorkflowURL).
		Msg("Workflow client initialized")

	// 2. In-memory ingestion request tracker
	a.Tracker = tracking.NewTracker(&a.Config.Tracker, a.Logger)
	a.Logger.Debug().Msg("Request tracker initialized")

	// 3. Organization service (extraction, dedup, linking)
	a.OrganizationService = organizations.NewService(a.StorageManager, a.Logger)
	a.Logger.Debug().Msg("Organization service initialized")

	// 4. Ingestion pipeline
	a.IngestionService = ingestion.NewService(
		a.WorkflowClient,
		a.StorageManager,
		a.OrganizationService,
		a.Tracker,
		&a.Config.Ingestion,
		a.Logger,
	)
	a.Logger.Debug().Msg("Ingestion service initialized")

	// 5. Profile query service
	a.ProfileService = profiles.NewService(a.StorageManager, a.Logger)
	a.Logger.Debug().Msg("Profile service initialized")

	// 6. Prompt template service, seeded with the built-in templates
	templateService := templates.NewService(a.StorageManager, a.Logger)
	if err := templateService.SeedDefaults(context.Background()); err != nil {
		return fmt.Errorf("failed to seed default templates: %w", err)
	}
	a.TemplateService = templateService
	a.Logger.Debug().Msg("Template service initialized")

	// 7. LLM provider. A missing API key disables scoring execution but
	// the rest of the API keeps working, so this is not fatal.
	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		a.LLMService = nil
		a.Logger.Warn().Err(err).Msg("Failed to initialize LLM service - scoring jobs will fail until a provider is configured")
		a.Logger.Info().Msg("To enable scoring, set PERSONA_CLAUDE_API_KEY or PERSONA_GEMINI_API_KEY")
	} else {
		a.LLMService = llmService
		a.Logger.Debug().Str("provider", llmService.Provider()).Msg("LLM service initialized")
	}

	// 8. Scoring job service (workers start later in New)
	a.ScoringService = scoring.NewService(
		a.StorageManager,
		a.TemplateService,
		a.LLMService,
		&a.Config.Scoring,
		a.Logger,
	)
	a.Logger.Debug().Msg("Scoring service initialized")

	// 9. Health service
	a.HealthService = health.NewService(
		a.StorageManager,
		a.WorkflowClient,
		a.Tracker,
		&a.Config.Health,
		a.Logger,
	)
	a.Logger.Debug().Msg("Health service initialized")

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.ProfileHandler = handlers.NewProfileHandler(a.IngestionService, a.ProfileService, a.Logger)
	a.CompanyHandler = handlers.NewCompanyHandler(a.ProfileService, a.Logger)
	a.ScoringHandler = handlers.NewScoringHandler(a.ScoringService, a.Logger)
	a.TemplateHandler = handlers.NewTemplateHandler(a.TemplateService, a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.HealthService, a.Logger)
	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources
func (a *App) Close() error {
	// Cancel background loops (tracker eviction, worker poll timers)
	if a.cancelCtx != nil {
		a.Logger.Info().Msg("Cancelling background goroutines")
		a.cancelCtx()
	}

	// Drain the scoring worker pool. In-flight LLM calls get a bounded
	// window to finish before the process exits.
	if a.ScoringService != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.ScoringService.Stop(stopCtx); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scoring workers cleanly")
		} else {
			a.Logger.Info().Msg("Scoring workers stopped")
		}
	}

	// Close LLM service
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
