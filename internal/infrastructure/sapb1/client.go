package sapb1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

// maxResponseSize bounds reads of Service Layer response bodies (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Client executes HTTP verbs against Service Layer endpoints. It owns the
// retry/backoff orchestration and error classification; sync handlers
// above it never retry transient failures themselves.
type Client struct {
	config     *Config
	sessions   *SessionManager
	httpClient *http.Client
	logger     *zap.Logger

	// sleep is swappable in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Service Layer client sharing the given session
// manager.
func NewClient(config *Config, sessions *SessionManager, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config:   config,
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		sleep:  sleepCtx,
	}, nil
}

// Get issues a GET against an entity endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil, query)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, body, nil)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, endpoint, body, nil)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// do runs the outer retry loop around doOnce:
//   - retryable auth errors trigger a session refresh and an immediate
//     retry, spending one attempt from the budget
//   - connection errors back off 2^attempt seconds before retrying
//   - API errors and fatal auth errors propagate immediately
func (c *Client) do(ctx context.Context, method, endpoint string, body any, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		respBody, err := c.doOnce(ctx, method, endpoint, body, query)
		if err == nil {
			return respBody, nil
		}

		e, ok := integration.AsError(err)
		if !ok {
			return nil, err
		}
		lastErr = err

		switch {
		case e.Kind == integration.ErrorKindAuth && e.Retryable:
			c.logger.Warn("Service Layer session rejected, refreshing",
				zap.String("method", method),
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
			)
			if _, rerr := c.sessions.Refresh(ctx); rerr != nil {
				return nil, rerr
			}
			// Retry immediately with the fresh session.

		case e.Kind == integration.ErrorKindConnection:
			if attempt == c.config.MaxAttempts {
				break
			}
			delay := time.Duration(1<<uint(attempt)) * time.Second
			c.logger.Warn("Service Layer request failed, backing off",
				zap.String("method", method),
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, integration.NewConnectionError("request cancelled during backoff", serr)
			}

		default:
			// API errors and fatal auth errors are not transient.
			c.logger.Error("Service Layer request rejected",
				zap.String("method", method),
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if e, ok := integration.AsError(lastErr); ok && e.Kind == integration.ErrorKindConnection {
		c.logger.Error("Service Layer request exhausted retries",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(lastErr),
		)
		return nil, integration.NewConnectionError("max retries exceeded", lastErr)
	}
	return nil, lastErr
}

// doOnce performs a single attempt.
func (c *Client) doOnce(ctx context.Context, method, endpoint string, body any, query url.Values) ([]byte, error) {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := c.config.BaseURL + "/" + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody []byte
	var reader io.Reader
	if body != nil {
		reqBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("sapb1: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("sapb1: failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	attachSessionCookies(req, session)

	c.logger.Debug("Service Layer request",
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.ByteString("body", reqBody),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewConnectionError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		// Normalized to an empty-success result.
		return nil, nil
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, integration.NewConnectionError("failed to read response", err)
	}

	c.logger.Debug("Service Layer response",
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", respBody),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The login succeeded earlier, so a rejection here means the
		// session expired server-side. Drop it so the refresh logs in.
		c.sessions.Invalidate()
		_, message := ParseError(respBody)
		return nil, integration.NewAuthError(integration.AuthReasonSessionExpired, message)

	case resp.StatusCode >= 400:
		code, message := ParseError(respBody)
		return nil, integration.NewAPIError(resp.StatusCode, code, message)
	}

	return respBody, nil
}

// sleepCtx waits for the duration or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
