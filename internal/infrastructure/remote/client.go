package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/record"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/session"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
	"github.com/devsmkna/bookbuilder-sub000/pkg/circuitbreaker"
	"github.com/devsmkna/bookbuilder-sub000/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the record store client.
type ClientConfig struct {
	// BaseURL is the record store base URL
	BaseURL string

	// APIKey is the bearer token for authentication (if applicable)
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables request-level debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the HTTP client for the remote record store. It implements
// record.Store.
//
// Reads are retried with backoff; writes are not retried here - the
// sync buffer provides at-least-once redelivery for increments, and
// session writes carry an idempotency key so the caller may repeat
// them safely at a higher level.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	retrier        *retry.Retrier
	circuitBreaker *circuitbreaker.CircuitBreaker
	mapper         *Mapper
}

var _ record.Store = (*Client)(nil)

// NewClient creates a new record store client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	logger := config.Logger
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger,
		retrier: retry.RecordStoreRetrier(),
		circuitBreaker: circuitbreaker.RecordStoreBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		mapper: NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetStats fetches the canonical stats snapshot.
func (c *Client) GetStats(ctx context.Context, userID string) (*stats.UserStats, error) {
	path := fmt.Sprintf("/api/v1/users/%s/stats", url.PathEscape(userID))

	var response APIResponse[UserStatsDTO]
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.markRetryable(c.doRequest(ctx, http.MethodGet, path, nil, nil, &response))
	})
	if err != nil {
		return nil, fmt.Errorf("get stats for %s: %w", userID, err)
	}

	if !response.Success {
		return nil, fmt.Errorf("get stats for %s: %w", userID, shared.ErrRemoteBadResponse)
	}

	return c.mapper.ToDomainStats(&response.Data), nil
}

// PutStats replaces the named fields of the stats record.
func (c *Client) PutStats(ctx context.Context, userID string, patch stats.StatsPatch) (*stats.UserStats, error) {
	path := fmt.Sprintf("/api/v1/users/%s/stats", url.PathEscape(userID))

	var response APIResponse[UserStatsDTO]
	if err := c.doRequest(ctx, http.MethodPut, path, nil, c.mapper.ToPatchDTO(patch), &response); err != nil {
		return nil, fmt.Errorf("put stats for %s: %w", userID, err)
	}

	if !response.Success {
		return nil, fmt.Errorf("put stats for %s: %w", userID, shared.ErrRemoteBadResponse)
	}

	return c.mapper.ToDomainStats(&response.Data), nil
}

// IncrementStats atomically adds the delta to the stats counters.
func (c *Client) IncrementStats(ctx context.Context, userID string, delta stats.Delta) (*stats.UserStats, error) {
	path := fmt.Sprintf("/api/v1/users/%s/stats/increment", url.PathEscape(userID))

	var response APIResponse[UserStatsDTO]
	if err := c.doRequest(ctx, http.MethodPost, path, nil, c.mapper.ToDeltaDTO(delta), &response); err != nil {
		return nil, fmt.Errorf("increment stats for %s: %w", userID, err)
	}

	if !response.Success {
		return nil, fmt.Errorf("increment stats for %s: %w", userID, shared.ErrRemoteBadResponse)
	}

	return c.mapper.ToDomainStats(&response.Data), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievements fetches the persisted achievement state.
func (c *Client) GetAchievements(ctx context.Context, userID string) ([]achievement.Achievement, error) {
	path := fmt.Sprintf("/api/v1/users/%s/achievements", url.PathEscape(userID))

	var response APIResponse[[]AchievementDTO]
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.markRetryable(c.doRequest(ctx, http.MethodGet, path, nil, nil, &response))
	})
	if err != nil {
		return nil, fmt.Errorf("get achievements for %s: %w", userID, err)
	}

	if !response.Success {
		return nil, fmt.Errorf("get achievements for %s: %w", userID, shared.ErrRemoteBadResponse)
	}

	return c.mapper.ToDomainAchievements(response.Data), nil
}

// PutAchievements persists the achievement state.
func (c *Client) PutAchievements(ctx context.Context, userID string, achievements []achievement.Achievement) error {
	path := fmt.Sprintf("/api/v1/users/%s/achievements", url.PathEscape(userID))

	var response APIResponse[struct{}]
	if err := c.doRequest(ctx, http.MethodPut, path, nil, c.mapper.ToAchievementDTOs(achievements), &response); err != nil {
		return fmt.Errorf("put achievements for %s: %w", userID, err)
	}

	if !response.Success {
		return fmt.Errorf("put achievements for %s: %w", userID, shared.ErrRemoteBadResponse)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// CreateWritingSession records a completed writing session. The store
// increments sessionsCompleted and writeTime itself and returns the
// updated snapshot; the Idempotency-Key header lets the store drop a
// repeated delivery of the same session.
func (c *Client) CreateWritingSession(ctx context.Context, userID string, s session.WritingSession, idempotencyKey string) (*stats.UserStats, error) {
	path := fmt.Sprintf("/api/v1/users/%s/sessions", url.PathEscape(userID))
	headers := map[string]string{"Idempotency-Key": idempotencyKey}

	var response APIResponse[UserStatsDTO]
	if err := c.doRequest(ctx, http.MethodPost, path, headers, c.mapper.ToSessionDTO(s), &response); err != nil {
		return nil, fmt.Errorf("create session %s: %w", s.ID, err)
	}

	if !response.Success {
		return nil, fmt.Errorf("create session %s: %w", s.ID, shared.ErrRemoteBadResponse)
	}

	return c.mapper.ToDomainStats(&response.Data), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a single HTTP request through the circuit breaker.
func (c *Client) doRequest(ctx context.Context, method, path string, headers map[string]string, body, result any) error {
	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.doSingleRequest(ctx, method, path, headers, body, result)
	})
}

// doSingleRequest performs one HTTP round trip and maps transport and
// status failures onto the shared error taxonomy.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, headers map[string]string, body, result any) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.config.Debug {
		c.logger.Debug("record store request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: %s %s", shared.ErrRemoteTimeout, method, path)
		}
		return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("%w: status %d", shared.ErrRemoteBadResponse, resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrRemoteBadResponse, err)
		}
	}

	return nil
}

// markRetryable wraps transient failures so the retrier repeats them.
// Not-found and client errors pass through untouched.
func (c *Client) markRetryable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrRemoteUnavailable) || errors.Is(err, shared.ErrRemoteTimeout) {
		return retry.Retryable(err)
	}
	return err
}

// isTimeout reports whether the transport error is a timeout.
func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}

// IsHealthy checks if the record store is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var response APIResponse[map[string]any]
	err := c.doSingleRequest(ctx, http.MethodGet, "/health", nil, nil, &response)
	return err == nil && response.Success
}
