package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/ternarybob/persona/internal/services/llm"
)

// runWorker polls for pending jobs until the context is cancelled. Each
// pass drains the queue, then the worker sleeps for the poll interval.
func (s *Service) runWorker(ctx context.Context, id int) {
	ticker := time.NewTicker(s.pollInterval())
	defer ticker.Stop()

	s.logger.Debug().Int("worker", id).Msg("Scoring worker started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Int("worker", id).Msg("Scoring worker stopped")
			return
		case <-ticker.C:
			s.drainQueue(ctx, id)
		}
	}
}

// drainQueue claims and processes pending jobs until none remain. A lost
// claim means another worker won the job; the loop just looks for the
// next one.
func (s *Service) drainQueue(ctx context.Context, workerID int) {
	for ctx.Err() == nil {
		job, err := s.storage.ScoringJobStorage().NextPending(ctx)
		if err != nil {
			s.logger.Error().Err(err).Int("worker", workerID).Msg("Failed to poll for pending scoring jobs")
			return
		}
		if job == nil {
			return
		}

		claimed, err := s.storage.ScoringJobStorage().ClaimJob(ctx, job.ID)
		if err != nil {
			if models.IsNotFound(err) {
				// Deleted between poll and claim (profile cascade).
				continue
			}
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to claim scoring job")
			return
		}
		if !claimed {
			continue
		}

		s.process(ctx, job.ID, workerID)
	}
}

// process runs one claimed job to a terminal state.
func (s *Service) process(ctx context.Context, jobID string, workerID int) {
	job, err := s.storage.ScoringJobStorage().GetJob(ctx, jobID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load claimed scoring job")
		return
	}

	start := time.Now()
	result, scoringErr := s.execute(ctx, job)

	if scoringErr != nil {
		job.MarkFailed(scoringErr.Code, scoringErr.Message, scoringErr.Retryable)
		s.logger.Warn().
			Int("worker", workerID).
			Str("job_id", job.ID).
			Str("profile_id", job.ProfileID).
			Str("code", scoringErr.Code).
			Bool("retryable", scoringErr.Retryable).
			Str("duration", time.Since(start).String()).
			Msg("Scoring job failed")
	} else {
		job.MarkCompleted(result)
		s.logger.Info().
			Int("worker", workerID).
			Str("job_id", job.ID).
			Str("profile_id", job.ProfileID).
			Str("model", result.ModelUsed).
			Int("tokens", result.TokensUsed).
			Str("duration", time.Since(start).String()).
			Msg("Scoring job completed")
	}

	if err := s.storage.ScoringJobStorage().SaveJob(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist scoring job outcome")
	}
}

// execute performs the LLM evaluation for a claimed job and returns
// either a result or a classified failure.
func (s *Service) execute(ctx context.Context, job *models.ScoringJob) (*models.ScoringResult, *models.ScoringError) {
	if s.llm == nil {
		// The process booted without provider credentials. Jobs stay
		// retryable so they can run once a key is configured.
		return nil, &models.ScoringError{
			Code:      models.ScoringErrLLMUnavailable,
			Message:   "no LLM provider configured",
			Retryable: true,
		}
	}

	profile, err := s.storage.ProfileStorage().GetProfile(ctx, job.ProfileID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, &models.ScoringError{
				Code:      models.ScoringErrInternal,
				Message:   "target profile no longer exists",
				Retryable: false,
			}
		}
		return nil, &models.ScoringError{
			Code:      models.ScoringErrInternal,
			Message:   "failed to load target profile: " + err.Error(),
			Retryable: true,
		}
	}

	serialized := SerializeProfile(profile, s.linkedOrganizations(ctx, profile.ID))
	rendered := RenderPrompt(job.Prompt, profile, serialized)

	callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	completion, err := s.llm.Complete(callCtx, &interfaces.CompletionRequest{
		Prompt:      rendered,
		Model:       job.Model,
		MaxTokens:   job.MaxTokens,
		Temperature: job.Temperature,
	})
	if err != nil {
		return nil, llm.ClassifyError(err)
	}

	parsed, parseErr := parseScoreObject(completion.Text)
	if parseErr != nil {
		return nil, &models.ScoringError{
			Code:      models.ScoringErrLLMBadJSON,
			Message:   parseErr.Error(),
			Retryable: true,
		}
	}

	return &models.ScoringResult{
		RawResponse: completion.Text,
		ParsedScore: parsed,
		TokensUsed:  completion.TokensUsed,
		ModelUsed:   completion.Model,
	}, nil
}

// linkedOrganizations loads the organizations reachable from a profile's
// employment edges, keyed by normalized URL for the serializer. Lookup
// failures only cost enrichment detail, never the job.
func (s *Service) linkedOrganizations(ctx context.Context, profileID string) map[string]*models.Organization {
	edges, err := s.storage.EdgeStorage().GetEdgesByProfile(ctx, profileID)
	if err != nil {
		s.logger.Warn().Err(err).Str("profile_id", profileID).Msg("Failed to load employment edges for serialization")
		return nil
	}

	orgs := make(map[string]*models.Organization)
	for _, edge := range edges {
		if edge.OrganizationID == "" {
			continue
		}
		org, err := s.storage.OrganizationStorage().GetOrganization(ctx, edge.OrganizationID)
		if err != nil {
			continue
		}
		if org.URLNormalized != "" {
			orgs[org.URLNormalized] = org
		}
	}
	return orgs
}

// parseScoreObject parses the model reply as a JSON object. Markdown code
// fences are tolerated; anything that is not an object is rejected.
func parseScoreObject(raw string) (map[string]interface{}, error) {
	text := stripCodeFences(raw)
	if text == "" {
		return nil, fmt.Errorf("model reply was empty")
	}

	var value interface{}
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, fmt.Errorf("model reply is not valid JSON: %v", err)
	}

	object, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("model reply must be a JSON object, got %s", jsonKind(value))
	}
	return object, nil
}

// stripCodeFences unwraps a reply the model wrapped in a markdown code
// block, with or without a language tag.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the opening fence line, including any language tag.
		text = text[idx+1:]
	} else {
		return strings.TrimSpace(strings.TrimSuffix(text, "```"))
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func jsonKind(value interface{}) string {
	switch value.(type) {
	case []interface{}:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return "an unexpected value"
	}
}
