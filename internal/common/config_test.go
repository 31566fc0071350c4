package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 100, config.Server.RequestsPerHour)
	assert.Equal(t, 30*time.Second, config.LinkedIn.RequestTimeout)
	assert.Equal(t, 3, config.LinkedIn.RetryAttempts)
	assert.Equal(t, 3*time.Second, config.LinkedIn.PacingInterval)
	assert.True(t, config.Ingestion.EnableCompanyIngestion)
	assert.False(t, config.Ingestion.EnableAsyncProcessing)
	assert.Equal(t, 60*time.Second, config.Scoring.RequestTimeout)
	assert.Equal(t, 7, config.Scoring.RetentionDays)
	assert.Equal(t, 10, config.Scoring.JobsPerProfilePerHour)
	assert.Equal(t, 5*time.Second, config.Health.LatencyThreshold)
	assert.Equal(t, 0.7, config.Health.MinCompleteness)
	assert.Equal(t, 1*time.Hour, config.Tracker.TTL)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)

	require.NoError(t, config.Validate())
}

func TestLoadFromFiles_MergesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persona.toml")
	content := `
environment = "production"

[server]
port = 9090

[linkedin]
profile_workflow_url = "https://workflows.internal/profile"
company_workflow_url = "https://workflows.internal/company"
retry_attempts = 5

[ingestion]
enable_async_processing = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "https://workflows.internal/profile", config.LinkedIn.ProfileWorkflowURL)
	assert.Equal(t, 5, config.LinkedIn.RetryAttempts)
	assert.True(t, config.Ingestion.EnableAsyncProcessing)

	// Unset values keep their defaults
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 3*time.Second, config.LinkedIn.PacingInterval)
}

func TestApplyEnvOverrides_FeatureFlags(t *testing.T) {
	t.Setenv("ENABLE_COMPANY_INGESTION", "false")
	t.Setenv("ENABLE_ASYNC_PROCESSING", "true")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.False(t, config.Ingestion.EnableCompanyIngestion)
	assert.True(t, config.Ingestion.EnableAsyncProcessing)
}

func TestApplyEnvOverrides_PrefixedFlagWins(t *testing.T) {
	t.Setenv("ENABLE_COMPANY_INGESTION", "true")
	t.Setenv("PERSONA_ENABLE_COMPANY_INGESTION", "false")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.False(t, config.Ingestion.EnableCompanyIngestion)
}

func TestApplyEnvOverrides_InvalidBoolIgnored(t *testing.T) {
	t.Setenv("ENABLE_COMPANY_INGESTION", "not-a-bool")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	// Unparseable values leave the default in place
	assert.True(t, config.Ingestion.EnableCompanyIngestion)
}

func TestApplyEnvOverrides_Durations(t *testing.T) {
	t.Setenv("PERSONA_LINKEDIN_REQUEST_TIMEOUT", "45s")
	t.Setenv("PERSONA_LINKEDIN_PACING_INTERVAL", "5")
	t.Setenv("PERSONA_SCORING_REQUEST_TIMEOUT", "90s")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, 45*time.Second, config.LinkedIn.RequestTimeout)
	// Bare integers are seconds
	assert.Equal(t, 5*time.Second, config.LinkedIn.PacingInterval)
	assert.Equal(t, 90*time.Second, config.Scoring.RequestTimeout)
}

func TestApplyEnvOverrides_APIKeys(t *testing.T) {
	t.Setenv("PERSONA_SERVER_API_KEYS", "key-one, key-two ,key-three")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, []string{"key-one", "key-two", "key-three"}, config.Server.APIKeys)
}

func TestApplyEnvOverrides_AnthropicFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, "sk-ant-env", config.Claude.APIKey)
}

func TestConfig_Validate_RejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Server.Port = 0
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Logging.Level = "verbose"
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.LinkedIn.ProfileWorkflowURL = "not a url"
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Health.MinCompleteness = 1.5
	assert.Error(t, config.Validate())
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 3000, "0.0.0.0")
	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave config untouched
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestIsProduction(t *testing.T) {
	config := NewDefaultConfig()
	assert.False(t, config.IsProduction())
	assert.True(t, config.AllowTestURLs())

	config.Environment = "production"
	assert.True(t, config.IsProduction())
	assert.False(t, config.AllowTestURLs())

	config.Environment = " prod "
	assert.True(t, config.IsProduction())
}
