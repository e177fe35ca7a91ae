package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bref "github.com/turtacn/bref-insight/pkg/errors"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

type testLogger struct {
	mu      sync.Mutex
	lastMsg string
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.mu.Lock()
	l.lastMsg = fmt.Sprintf(format, args...)
	l.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Constructor Tests
// ---------------------------------------------------------------------------

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, "/data", c.dataPrefix)
	assert.Equal(t, "/api/openai", c.proxyPath)
	assert.Contains(t, c.userAgent, "bref-go-sdk/")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://invalid", "invalid-url"} {
		_, err := NewClient(u)
		assert.True(t, bref.IsCode(err, bref.ErrCodeValidation), u)
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	customClient := &http.Client{Timeout: 10 * time.Second}
	logger := &testLogger{}
	c, err := NewClient("http://localhost",
		WithHTTPClient(customClient),
		WithLogger(logger),
		WithRetryMax(5),
	)
	require.NoError(t, err)
	assert.Equal(t, customClient, c.httpClient)
	assert.Equal(t, logger, c.logger)
	assert.Equal(t, 5, c.retryMax)
}

// ---------------------------------------------------------------------------
// Lazy Init Tests
// ---------------------------------------------------------------------------

func TestClient_SubClients_LazyInit(t *testing.T) {
	c, _ := NewClient("http://localhost")
	assert.Nil(t, c.fixtures)
	assert.Nil(t, c.chat)
	assert.Same(t, c.Fixtures(), c.Fixtures())
	assert.Same(t, c.Chat(), c.Chat())
}

func TestClient_SubClients_ConcurrentAccess(t *testing.T) {
	c, _ := NewClient("http://localhost")
	var wg sync.WaitGroup
	fixtures := make([]*FixturesClient, 50)

	for i := range fixtures {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			fixtures[idx] = c.Fixtures()
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(fixtures); i++ {
		assert.Same(t, fixtures[0], fixtures[i])
	}
}

// ---------------------------------------------------------------------------
// HTTP Execution Tests (do)
// ---------------------------------------------------------------------------

func TestClient_Do_RequestHeaders(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "bref-go-sdk/")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}
	c := newTestClient(t, handler)
	_, err := c.do(context.Background(), http.MethodGet, "test", nil)
	assert.NoError(t, err)
}

func TestClient_Do_4xxError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": "STORE_003", "message": "Missing"}`))
	}
	c := newTestClient(t, handler)
	_, err := c.do(context.Background(), http.MethodGet, "/test", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "STORE_003", apiErr.Code)
	assert.Equal(t, "Missing", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_Do_4xxNoRetry(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}
	c := newTestClient(t, handler)
	_, err := c.do(context.Background(), http.MethodGet, "/test", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetry(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}
	c := newTestClient(t, handler)
	body, err := c.do(context.Background(), http.MethodGet, "/test", nil)
	assert.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetryExhausted(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}
	c := newTestClient(t, handler, WithRetryMax(2))
	_, err := c.do(context.Background(), http.MethodGet, "/test", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	// 1 initial + 2 retries
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	logger := &testLogger{}
	c, _ := NewClient(server.URL, WithRetryMax(1), WithRetryWait(time.Millisecond, 2*time.Millisecond), WithLogger(logger))
	_, err := c.do(context.Background(), http.MethodGet, "/test", nil)
	assert.Error(t, err)
	assert.Greater(t, atomic.LoadInt32(&logger.count), int32(0))
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.do(ctx, http.MethodGet, "/test", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// APIError Tests
// ---------------------------------------------------------------------------

func TestAPIError_Methods(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 404}).IsNotFound())
	assert.True(t, (&APIError{StatusCode: 401}).IsUnauthorized())
	assert.True(t, (&APIError{StatusCode: 429}).IsRateLimited())
	assert.True(t, (&APIError{StatusCode: 503}).IsServerError())
	assert.False(t, (&APIError{StatusCode: 400}).IsServerError())

	eStr := (&APIError{Code: "ERR", StatusCode: 400, Message: "Msg", RequestID: "ID"}).Error()
	assert.Equal(t, "bref: ERR (HTTP 400): Msg [request_id=ID]", eStr)
}

//Personal.AI order the ending
