// Package workflow provides the client for the external workflow service
// that performs the actual LinkedIn page fetches. This package centralizes
// all workflow service interactions for the application.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryAttempts is the default number of retries after the
	// first attempt fails transiently.
	DefaultRetryAttempts = 3

	// DefaultPacingInterval is the minimum gap between successive company
	// fetches within a batch.
	DefaultPacingInterval = 3 * time.Second

	// maxBodyExcerpt bounds how much of an upstream error body is carried
	// in returned errors.
	maxBodyExcerpt = 512
)

// Client is a workflow service API client.
type Client struct {
	profileURL string
	companyURL string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	policy     *RetryPolicy
	pacer      *rate.Limiter
}

var _ interfaces.WorkflowClient = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryPolicy sets a custom retry policy.
func WithRetryPolicy(policy *RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithPacing sets the minimum gap between successive batch fetches.
func WithPacing(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.pacer = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient creates a workflow service client from config.
func NewClient(config *common.LinkedInConfig, opts ...ClientOption) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pacing := config.PacingInterval
	if pacing <= 0 {
		pacing = DefaultPacingInterval
	}

	c := &Client{
		profileURL: config.ProfileWorkflowURL,
		companyURL: config.CompanyWorkflowURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		policy:     NewRetryPolicy(config.RetryAttempts),
		pacer:      rate.NewLimiter(rate.Every(pacing), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchProfile retrieves the raw payload for a member profile URL.
func (c *Client) FetchProfile(ctx context.Context, url string) (models.RawPayload, error) {
	if c.logger != nil {
		c.logger.Debug().Str("url", url).Msg("Fetching profile from workflow service")
	}
	return c.fetch(ctx, c.profileURL, url)
}

// FetchCompany retrieves the raw payload for a company page URL.
func (c *Client) FetchCompany(ctx context.Context, url string) (models.RawPayload, error) {
	if c.logger != nil {
		c.logger.Debug().Str("url", url).Msg("Fetching company from workflow service")
	}
	return c.fetch(ctx, c.companyURL, url)
}

// FetchCompanies retrieves payloads for several company URLs. Successive
// calls keep the configured minimum gap; one dead company page does not
// abort the rest of the batch. The result slice preserves input order.
func (c *Client) FetchCompanies(ctx context.Context, urls []string) []interfaces.CompanyFetchResult {
	results := make([]interfaces.CompanyFetchResult, len(urls))
	for i, url := range urls {
		results[i].URL = url

		if err := c.pacer.Wait(ctx); err != nil {
			results[i].Err = err
			continue
		}

		payload, err := c.FetchCompany(ctx, url)
		results[i].Payload = payload
		results[i].Err = err

		if err != nil && c.logger != nil {
			c.logger.Warn().
				Str("url", url).
				Err(err).
				Msg("Company fetch failed within batch")
		}
	}
	return results
}

// fetch posts {"url": target} to a workflow endpoint and decodes the JSON
// reply, retrying transient failures per the retry policy.
func (c *Client) fetch(ctx context.Context, endpoint, target string) (models.RawPayload, error) {
	body, err := json.Marshal(map[string]string{"url": target})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.policy.CalculateBackoff(attempt-1, retryAfterOf(lastErr))
			if c.logger != nil {
				c.logger.Debug().
					Int("attempt", attempt).
					Dur("backoff", backoff).
					Err(lastErr).
					Msg("Retrying workflow request after backoff")
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		payload, err := c.doOnce(ctx, endpoint, body)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
	}

	if c.logger != nil {
		c.logger.Warn().
			Int("max_retries", c.policy.MaxRetries).
			Err(lastErr).
			Msg("Workflow request retries exhausted")
	}
	return nil, lastErr
}

// doOnce performs a single request attempt and classifies the outcome into
// the typed error taxonomy.
func (c *Client) doOnce(ctx context.Context, endpoint string, body []byte) (models.RawPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.UpstreamError{Endpoint: endpoint, Body: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &models.RateLimitError{Scope: "upstream", RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return nil, &models.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: readExcerpt(resp.Body), Retryable: true}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &models.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: readExcerpt(resp.Body), Retryable: false}
	}

	var payload models.RawPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &models.UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: "invalid JSON reply: " + err.Error(), Retryable: false}
	}
	return payload, nil
}

// isRetryable reports whether another attempt can help.
func isRetryable(err error) bool {
	var upstream *models.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Retryable
	}
	var rateLimited *models.RateLimitError
	return errors.As(err, &rateLimited)
}

// retryAfterOf extracts the upstream-suggested wait, if the last failure
// carried one.
func retryAfterOf(err error) time.Duration {
	var rateLimited *models.RateLimitError
	if errors.As(err, &rateLimited) {
		return rateLimited.RetryAfter
	}
	return 0
}

// parseRetryAfter handles both delay-seconds and HTTP-date forms.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func readExcerpt(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxBodyExcerpt))
	return strings.TrimSpace(string(data))
}
