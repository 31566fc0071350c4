package interfaces

import (
	"context"
)

// LLMService defines the interface for language model completion operations
// used by the scoring engine. Implementations may use Anthropic Claude or
// Google Gemini.
type LLMService interface {
	// Complete generates a completion for the given prompt.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - req: Prompt and generation parameters
	//
	// Returns:
	//   - *CompletionResult: Generated text plus usage metadata
	//   - error: Error if the completion fails. Provider errors are mapped
	//     to the scoring error taxonomy by the caller.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// HealthCheck verifies the provider is reachable and authenticated.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//
	// Returns:
	//   - error: Error if the provider is not usable
	HealthCheck(ctx context.Context) error

	// Provider returns the provider name ("claude" or "gemini").
	Provider() string

	// Close releases provider resources.
	Close() error
}

// CompletionRequest carries a single prompt to the provider.
type CompletionRequest struct {
	// Prompt is the fully rendered prompt text
	Prompt string

	// Model overrides the provider's configured default model when set
	Model string

	// MaxTokens caps the response length (provider default when zero)
	MaxTokens int

	// Temperature controls sampling randomness in [0, 1]
	Temperature float64
}

// CompletionResult is the provider-neutral completion outcome.
type CompletionResult struct {
	// Text is the raw completion text
	Text string

	// TokensUsed is the total token count reported by the provider
	TokensUsed int

	// Model is the concrete model that served the request
	Model string
}
