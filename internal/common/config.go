package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production" - controls test URL allowance
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	LinkedIn    LinkedInConfig  `toml:"linkedin"` // External workflow endpoints for profile/company fetches
	Ingestion   IngestionConfig `toml:"ingestion"`
	Scoring     ScoringConfig   `toml:"scoring"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Health      HealthConfig    `toml:"health"`
	Tracker     TrackerConfig   `toml:"tracker"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
	// APIKeys holds the pre-shared keys accepted in X-API-Key. An empty
	// list disables authentication (development only).
	APIKeys []string `toml:"api_keys"`
	// RequestsPerHour is the per-key rate limit across all endpoints.
	RequestsPerHour int `toml:"requests_per_hour" validate:"min=1"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// LinkedInConfig contains the external workflow service configuration. The
// workflow service performs the actual profile/company scraping; this app
// only orchestrates calls against it.
type LinkedInConfig struct {
	ProfileWorkflowURL string        `toml:"profile_workflow_url" validate:"required,url"`
	CompanyWorkflowURL string        `toml:"company_workflow_url" validate:"required,url"`
	APIKey             string        `toml:"api_key"`
	RequestTimeout     time.Duration `toml:"request_timeout"` // Per-request timeout (default: 30s)
	RetryAttempts      int           `toml:"retry_attempts" validate:"min=0,max=10"`
	// PacingInterval is the mandatory gap between successive company
	// fetches within a batch, respecting the workflow service's limits.
	PacingInterval time.Duration `toml:"pacing_interval"`
}

// IngestionConfig contains feature flags for the ingestion pipeline
type IngestionConfig struct {
	// EnableCompanyIngestion gates organization enrichment globally. When
	// false, include_companies on requests is ignored.
	EnableCompanyIngestion bool `toml:"enable_company_ingestion"`
	// EnableAsyncProcessing makes profile creation return a tracking id
	// immediately instead of waiting for enrichment to finish.
	EnableAsyncProcessing bool `toml:"enable_async_processing"`
}

// ScoringConfig contains the scoring job engine configuration
type ScoringConfig struct {
	Workers        int           `toml:"workers" validate:"min=1,max=32"` // Background worker count
	PollInterval   time.Duration `toml:"poll_interval"`                   // How often workers look for pending jobs
	RequestTimeout time.Duration `toml:"request_timeout"`                 // LLM call timeout (default: 60s)
	RetentionDays  int           `toml:"retention_days" validate:"min=1"` // Terminal jobs older than this are swept
	SweepSchedule  string        `toml:"sweep_schedule"`                  // Cron schedule for the retention sweep
	// JobsPerProfilePerHour limits scoring job creation per target profile.
	JobsPerProfilePerHour int `toml:"jobs_per_profile_per_hour" validate:"min=1"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for scoring (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for scoring (default: "gemini-2.5-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the provider used when a job names no model
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=claude gemini"`
}

// HealthConfig contains deep health probe configuration. The probe URLs are
// configurable because public pages come and go, and a vanished test page
// must not report the whole system unhealthy forever.
type HealthConfig struct {
	TestProfileURL   string        `toml:"test_profile_url"`
	TestCompanyURL   string        `toml:"test_company_url"`
	LatencyThreshold time.Duration `toml:"latency_threshold"` // Above this a passing probe degrades (default: 5s)
	MinCompleteness  float64       `toml:"min_completeness" validate:"min=0,max=1"`
}

// TrackerConfig controls the in-process ingestion request tracker
type TrackerConfig struct {
	TTL              time.Duration `toml:"ttl"`               // Terminal records older than this are evicted
	EvictionInterval time.Duration `toml:"eviction_interval"` // How often the eviction pass runs
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in persona.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development", // Default to development mode - allows test URLs
		Server: ServerConfig{
			Port:            8080,
			Host:            "localhost",
			APIKeys:         []string{},
			RequestsPerHour: 100,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		LinkedIn: LinkedInConfig{
			ProfileWorkflowURL: "http://localhost:5678/webhook/linkedin-profile",
			CompanyWorkflowURL: "http://localhost:5678/webhook/linkedin-company",
			APIKey:             "", // User must provide API key in config file
			RequestTimeout:     30 * time.Second,
			RetryAttempts:      3,
			PacingInterval:     3 * time.Second,
		},
		Ingestion: IngestionConfig{
			EnableCompanyIngestion: true,
			EnableAsyncProcessing:  false,
		},
		Scoring: ScoringConfig{
			Workers:               2,
			PollInterval:          2 * time.Second,
			RequestTimeout:        60 * time.Second,
			RetentionDays:         7,
			SweepSchedule:         "0 0 * * * *", // Hourly (seconds-precision cron format)
			JobsPerProfilePerHour: 10,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-2.5-flash",
			Timeout:     "2m",
			RateLimit:   "4s", // Default to 4s (15 RPM) for free tier
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Health: HealthConfig{
			TestProfileURL:   "https://www.linkedin.com/in/satyanadella/",
			TestCompanyURL:   "https://www.linkedin.com/company/microsoft/",
			LatencyThreshold: 5 * time.Second,
			MinCompleteness:  0.7,
		},
		Tracker: TrackerConfig{
			TTL:              1 * time.Hour,
			EvictionInterval: 10 * time.Minute,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the assembled configuration before the app starts.
func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: PERSONA_ENV, fallback: GO_ENV)
	if env := os.Getenv("PERSONA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("PERSONA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PERSONA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if keys := os.Getenv("PERSONA_SERVER_API_KEYS"); keys != "" {
		parsed := []string{}
		for _, k := range strings.Split(keys, ",") {
			trimmed := strings.TrimSpace(k)
			if trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			config.Server.APIKeys = parsed
		}
	}
	if rph := os.Getenv("PERSONA_SERVER_REQUESTS_PER_HOUR"); rph != "" {
		if n, err := strconv.Atoi(rph); err == nil {
			config.Server.RequestsPerHour = n
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("PERSONA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("PERSONA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PERSONA_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("PERSONA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LinkedIn workflow configuration
	if profileURL := os.Getenv("PERSONA_LINKEDIN_PROFILE_WORKFLOW_URL"); profileURL != "" {
		config.LinkedIn.ProfileWorkflowURL = profileURL
	}
	if companyURL := os.Getenv("PERSONA_LINKEDIN_COMPANY_WORKFLOW_URL"); companyURL != "" {
		config.LinkedIn.CompanyWorkflowURL = companyURL
	}
	if apiKey := os.Getenv("PERSONA_LINKEDIN_API_KEY"); apiKey != "" {
		config.LinkedIn.APIKey = apiKey
	}
	if timeout := os.Getenv("PERSONA_LINKEDIN_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.LinkedIn.RequestTimeout = d
		}
	}
	if retries := os.Getenv("PERSONA_LINKEDIN_RETRY_ATTEMPTS"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.LinkedIn.RetryAttempts = r
		}
	}
	if pacing := os.Getenv("PERSONA_LINKEDIN_PACING_INTERVAL"); pacing != "" {
		// Accept a duration string ("3s") or a bare count of seconds ("3")
		if d, err := time.ParseDuration(pacing); err == nil {
			config.LinkedIn.PacingInterval = d
		} else if secs, err := strconv.Atoi(pacing); err == nil && secs >= 0 {
			config.LinkedIn.PacingInterval = time.Duration(secs) * time.Second
		}
	}

	// Ingestion feature flags. The plain names are the documented public
	// interface; the PERSONA_ prefixed forms take priority when both are set.
	if v := os.Getenv("ENABLE_COMPANY_INGESTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Ingestion.EnableCompanyIngestion = b
		}
	}
	if v := os.Getenv("PERSONA_ENABLE_COMPANY_INGESTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Ingestion.EnableCompanyIngestion = b
		}
	}
	if v := os.Getenv("ENABLE_ASYNC_PROCESSING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Ingestion.EnableAsyncProcessing = b
		}
	}
	if v := os.Getenv("PERSONA_ENABLE_ASYNC_PROCESSING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Ingestion.EnableAsyncProcessing = b
		}
	}

	// Scoring configuration
	if workers := os.Getenv("PERSONA_SCORING_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Scoring.Workers = w
		}
	}
	if poll := os.Getenv("PERSONA_SCORING_POLL_INTERVAL"); poll != "" {
		if d, err := time.ParseDuration(poll); err == nil {
			config.Scoring.PollInterval = d
		}
	}
	if timeout := os.Getenv("PERSONA_SCORING_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Scoring.RequestTimeout = d
		}
	}
	if retention := os.Getenv("PERSONA_SCORING_RETENTION_DAYS"); retention != "" {
		if r, err := strconv.Atoi(retention); err == nil {
			config.Scoring.RetentionDays = r
		}
	}
	if schedule := os.Getenv("PERSONA_SCORING_SWEEP_SCHEDULE"); schedule != "" {
		config.Scoring.SweepSchedule = schedule
	}
	if perProfile := os.Getenv("PERSONA_SCORING_JOBS_PER_PROFILE_PER_HOUR"); perProfile != "" {
		if n, err := strconv.Atoi(perProfile); err == nil {
			config.Scoring.JobsPerProfilePerHour = n
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("PERSONA_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // PERSONA_ prefix takes priority
	}
	if model := os.Getenv("PERSONA_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("PERSONA_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("PERSONA_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}

	// Gemini configuration
	if apiKey := os.Getenv("PERSONA_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && config.Gemini.APIKey == "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("PERSONA_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("PERSONA_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("PERSONA_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}

	// LLM provider configuration
	if provider := os.Getenv("PERSONA_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Health probe configuration
	if profileURL := os.Getenv("PERSONA_HEALTH_TEST_PROFILE_URL"); profileURL != "" {
		config.Health.TestProfileURL = profileURL
	}
	if companyURL := os.Getenv("PERSONA_HEALTH_TEST_COMPANY_URL"); companyURL != "" {
		config.Health.TestCompanyURL = companyURL
	}

	// Tracker configuration
	if ttl := os.Getenv("PERSONA_TRACKER_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Tracker.TTL = d
		}
	}
	if interval := os.Getenv("PERSONA_TRACKER_EVICTION_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Tracker.EvictionInterval = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.TrimSpace(c.Environment)
	return env == "production" || env == "prod"
}

// AllowTestURLs returns true if test URLs (localhost, 127.0.0.1, etc.) are
// allowed. Test URLs are only allowed in development mode.
func (c *Config) AllowTestURLs() bool {
	return !c.IsProduction()
}
