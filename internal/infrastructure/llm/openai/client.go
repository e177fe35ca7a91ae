// Package openai is the upstream Responses API client used by the chat
// proxy.  It forwards a chat.Request, retries transient failures and maps
// upstream statuses onto the error taxonomy.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

const (
	responsesPath   = "/v1/responses"
	maxRetryBackoff = 10 * time.Second
)

// Metrics receives one observation per completed call.
type Metrics interface {
	ObserveLLM(model, status string, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLLM(string, string, time.Duration) {}

// Config holds upstream connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client calls the Responses API.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	logger     logging.Logger
	metrics    Metrics
	sleep      func(context.Context, time.Duration) error
}

// Option tunes NewClient.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the first retry delay; later delays double.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewClient builds a client.  An empty API key is accepted; calls then fail
// with ErrCodeLLMNotConfigured.
func NewClient(cfg Config, logger logging.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com"
	}
	c := &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Second,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    nopMetrics{},
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ─────────────────────────────────────────────────────────────────────────────
// Errors
// ─────────────────────────────────────────────────────────────────────────────

// httpError is a non-2xx upstream answer.
type httpError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpError) Error() string {
	return fmt.Sprintf("upstream http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// upstreamMessage extracts error.message from an upstream error body.
func upstreamMessage(body string) string {
	if msg := gjson.Get(body, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return strings.TrimSpace(body)
}

// classify maps a final upstream failure onto an AppError.
func classify(err error) *apperrors.AppError {
	he, ok := err.(*httpError)
	if !ok {
		return apperrors.Wrap(err, apperrors.ErrCodeLLMUpstream, "language model request failed")
	}
	switch he.StatusCode {
	case http.StatusTooManyRequests:
		return apperrors.New(apperrors.ErrCodeLLMRateLimited, apperrors.DefaultMessageForCode(apperrors.ErrCodeLLMRateLimited)).WithCause(he)
	case http.StatusUnauthorized:
		return apperrors.New(apperrors.ErrCodeLLMAuthFailed, apperrors.DefaultMessageForCode(apperrors.ErrCodeLLMAuthFailed)).WithCause(he)
	default:
		msg := upstreamMessage(he.Body)
		if msg == "" {
			msg = apperrors.DefaultMessageForCode(apperrors.ErrCodeLLMUpstream)
		}
		return apperrors.New(apperrors.ErrCodeLLMUpstream, msg).WithCause(he)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Complete
// ─────────────────────────────────────────────────────────────────────────────

// Complete forwards req and returns the extracted output text together with
// the raw upstream payload.
func (c *Client) Complete(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	if !c.Configured() {
		return nil, apperrors.New(apperrors.ErrCodeLLMNotConfigured, "language model API key is not configured")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode completion request")
	}

	start := time.Now()
	raw, err := c.doWithRetry(ctx, body)
	if err != nil {
		appErr := classify(err)
		c.metrics.ObserveLLM(req.Model, statusLabel(err), time.Since(start))
		c.logger.Warn("language model request failed",
			logging.String("model", req.Model),
			logging.String("code", appErr.Code.String()),
			logging.Err(err))
		return nil, appErr
	}
	c.metrics.ObserveLLM(req.Model, "200", time.Since(start))

	parsed := gjson.ParseBytes(raw)
	model := parsed.Get("model").String()
	if model == "" {
		model = req.Model
	}
	return &chat.Response{
		Text:     ExtractOutputText(raw),
		ID:       parsed.Get("id").String(),
		Model:    model,
		Response: json.RawMessage(raw),
	}, nil
}

func statusLabel(err error) string {
	if he, ok := err.(*httpError); ok {
		return strconv.Itoa(he.StatusCode)
	}
	return "error"
}

func (c *Client) doWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		raw, err := c.doOnce(ctx, body)
		if err == nil {
			return raw, nil
		}
		he, ok := err.(*httpError)
		if !ok || !he.retryable() || attempt >= c.maxRetries || ctx.Err() != nil {
			return nil, err
		}

		wait := backoff
		if he.RetryAfter > 0 {
			wait = he.RetryAfter
		}
		if wait > maxRetryBackoff {
			wait = maxRetryBackoff
		}
		wait = jitter(wait)
		c.logger.Warn("language model request retrying",
			logging.Int("attempt", attempt+1),
			logging.Int("max_retries", c.maxRetries),
			logging.Int("status", he.StatusCode),
			logging.Duration("sleep", wait))
		if err := c.sleep(ctx, wait); err != nil {
			return nil, he
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+responsesPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
		if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
			he.RetryAfter = time.Duration(secs) * time.Second
		}
		return nil, he
	}
	return raw, nil
}

// ExtractOutputText concatenates the output_text parts of assistant message
// items.  A top-level output_text field is used when present.
func ExtractOutputText(raw []byte) string {
	if t := gjson.GetBytes(raw, "output_text"); t.Type == gjson.String && t.String() != "" {
		return t.String()
	}
	var out strings.Builder
	for _, item := range gjson.GetBytes(raw, "output").Array() {
		if item.Get("type").String() != "message" {
			continue
		}
		if role := item.Get("role").String(); role != "" && role != "assistant" {
			continue
		}
		for _, part := range item.Get("content").Array() {
			if part.Get("type").String() == chat.PartOutputText {
				out.WriteString(part.Get("text").String())
			}
		}
	}
	return out.String()
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	// +/- 20%
	return d + time.Duration(float64(d)*0.2*(rand.Float64()*2-1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

//Personal.AI order the ending
