package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using the Google
// Gemini API.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter
}

var _ interfaces.LLMService = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini LLM service instance.
//
// The service initialization includes:
//  1. Validating the Google API key
//  2. Setting the default model name if not specified
//  3. Parsing timeout and rate limit durations from configuration
//  4. Initializing the genai client against the Gemini API backend
//
// Parameters:
//   - geminiConfig: Gemini configuration with API key and model settings
//   - logger: Structured logger for service operations
//
// Returns:
//   - *GeminiService: Initialized service ready for use
//   - error: nil on success, error with details on failure
func NewGeminiService(geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini service (set via GEMINI_API_KEY, PERSONA_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.5-flash"
	}

	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	// Free-tier Gemini keys allow 15 requests per minute, so completions
	// are paced through a limiter instead of burning retries on 429s.
	interval := 4 * time.Second
	if geminiConfig.RateLimit != "" {
		interval, err = time.ParseDuration(geminiConfig.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit duration '%s': %w", geminiConfig.RateLimit, err)
		}
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Dur("rate_limit", interval).
		Msg("Gemini LLM service initialized successfully")

	return service, nil
}

// Complete generates a completion for the given prompt.
//
// Calls are paced through the service rate limiter before reaching the
// API. Request parameters override the configured defaults per call; a
// zero model, max_tokens, or temperature falls back to config.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - req: Prompt and generation parameters
//
// Returns:
//   - *interfaces.CompletionResult: Generated text plus usage metadata
//   - error: nil on success, error with details on failure
func (s *GeminiService) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt cannot be empty for completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait interrupted: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = s.config.Model
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = float64(s.config.Temperature)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	startTime := time.Now()
	s.logger.Debug().
		Str("model", model).
		Int("prompt_length", len(req.Prompt)).
		Msg("Starting Gemini completion")

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := s.client.Models.GenerateContent(timeoutCtx, model, contents, genConfig)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", model).
			Msg("Gemini completion failed")
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	// Try each candidate until one yields non-empty text.
	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Gemini API")
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	modelUsed := resp.ModelVersion
	if modelUsed == "" {
		modelUsed = model
	}

	result := &interfaces.CompletionResult{
		Text:       text.String(),
		TokensUsed: tokensUsed,
		Model:      modelUsed,
	}

	s.logger.Debug().
		Str("model", result.Model).
		Int("response_length", len(result.Text)).
		Int("tokens_used", result.TokensUsed).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini completion completed successfully")

	return result, nil
}

// HealthCheck verifies the Gemini service is operational and can handle
// requests with a lightweight connectivity probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	s.logger.Debug().Msg("Running Gemini LLM service health check")

	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText("ping", genai.RoleUser)}
	resp, err := s.client.Models.GenerateContent(healthCheckCtx, s.config.Model, contents, nil)
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return fmt.Errorf("Gemini probe returned empty response")
	}

	s.logger.Debug().
		Str("model", s.config.Model).
		Msg("Gemini LLM service health check passed")

	return nil
}

// Provider returns the provider name.
func (s *GeminiService) Provider() string {
	return string(common.LLMProviderGemini)
}

// Close releases resources and performs cleanup operations.
func (s *GeminiService) Close() error {
	s.logger.Debug().Msg("Closing Gemini LLM service")

	// genai.Client doesn't require explicit Close
	s.client = nil

	return nil
}
