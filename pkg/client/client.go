// Package client is the Go SDK for a running bref-insight server.  It reads
// data fixtures over HTTP and sends chat turns through the language-model
// proxy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/bref-insight/pkg/errors"
)

const Version = "0.1.0"

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// noopLogger is a no-op implementation of Logger
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client is the bref-insight SDK client
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	dataPrefix   string
	proxyPath    string

	fixtures     *FixturesClient
	fixturesOnce sync.Once
	chat         *ChatClient
	chatOnce     sync.Once
}

// APIError represents a non-2xx answer from the server
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`

	retryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bref: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient creates a new SDK client for the server at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "base URL is required")
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid base URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeValidation, "base URL scheme must be http or https").WithDetail(baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 90 * time.Second},
		userAgent:    fmt.Sprintf("bref-go-sdk/%s", Version),
		logger:       &noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
		dataPrefix:   "/data",
		proxyPath:    "/api/openai",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Fixtures returns the fixtures sub-client (lazy initialization, thread-safe)
func (c *Client) Fixtures() *FixturesClient {
	c.fixturesOnce.Do(func() {
		c.fixtures = &FixturesClient{client: c}
	})
	return c.fixtures
}

// Chat returns the chat sub-client (lazy initialization, thread-safe)
func (c *Client) Chat() *ChatClient {
	c.chatOnce.Do(func() {
		c.chat = &ChatClient{client: c}
	})
	return c.chat
}

// do performs an HTTP request with retry logic and returns the raw body.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal request body")
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			if apiErr, ok := lastErr.(*APIError); ok && apiErr.retryAfter > 0 {
				backoff = apiErr.retryAfter
			}
			c.logger.Debugf("Retry attempt %d after %v", attempt, backoff)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "create request")
		}

		requestID := uuid.New().String()
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Errorf("Request failed: %v", err)
			lastErr = err
			continue
		}

		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, duration)

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFetchFailed, "read response body")
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
			if len(respBody) > 0 {
				var errResp struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				if err := json.Unmarshal(respBody, &errResp); err == nil {
					apiErr.Code = errResp.Code
					apiErr.Message = errResp.Message
				} else {
					apiErr.Message = strings.TrimSpace(string(respBody))
				}
			}
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				apiErr.retryAfter = time.Duration(secs) * time.Second
			}

			lastErr = apiErr
			if shouldRetry(resp.StatusCode) {
				continue
			}
			return nil, apiErr
		}

		return respBody, nil
	}

	return nil, lastErr
}

// shouldRetry retries 5xx and 429; every other 4xx is final.
func shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}

	// Add jitter (0-25% of backoff)
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(quarter))
	}
	return backoff
}

//Personal.AI order the ending
