package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req *chat.Request) (*chat.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Response), args.Error(1)
}

const validBody = `{"model":"gpt-4o-mini","input":[{"role":"user","content":[{"type":"input_text","text":"hi"}]}]}`

func serveProxy(t *testing.T, c Completer, method, body string, maxBody int64) (*httptest.ResponseRecorder, chat.ErrorResponse) {
	t.Helper()
	h := NewProxyHandler(c, maxBody, logging.NewNopLogger())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, "/api/openai", strings.NewReader(body)))

	var er chat.ErrorResponse
	if w.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	}
	return w, er
}

func TestProxyHandler_MethodNotAllowed(t *testing.T) {
	w, er := serveProxy(t, new(mockCompleter), http.MethodGet, "", 0)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	assert.Equal(t, "Method not allowed", er.Message)
}

func TestProxyHandler_InvalidJSON(t *testing.T) {
	w, er := serveProxy(t, new(mockCompleter), http.MethodPost, `{"model":`, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid JSON body", er.Message)
}

func TestProxyHandler_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"both missing", `{}`, "Missing required fields: input, model"},
		{"model missing", `{"input":[{"role":"user","content":[{"type":"input_text","text":"x"}]}]}`, "Missing required fields: model"},
		{"empty input", `{"model":"m","input":[]}`, "Missing required fields: input"},
		{"bad role", `{"model":"m","input":[{"role":"robot","content":[{"type":"input_text","text":"x"}]}]}`, "Invalid fields: input[0].role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, er := serveProxy(t, new(mockCompleter), http.MethodPost, tt.body, 0)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.msg, er.Message)
			assert.Equal(t, errors.ErrCodeValidation.String(), er.Code)
		})
	}
}

func TestProxyHandler_BodyTooLarge(t *testing.T) {
	w, _ := serveProxy(t, new(mockCompleter), http.MethodPost, validBody, 16)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestProxyHandler_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"rate limited", errors.New(errors.ErrCodeLLMRateLimited, "rate limit exceeded. Please try again later."),
			http.StatusTooManyRequests, "rate limit exceeded. Please try again later."},
		{"auth", errors.New(errors.ErrCodeLLMAuthFailed, "authentication error with the language model API"),
			http.StatusUnauthorized, "authentication error with the language model API"},
		{"upstream keeps message", errors.New(errors.ErrCodeLLMUpstream, "Unsupported parameter: top_p"),
			http.StatusInternalServerError, "Unsupported parameter: top_p"},
		{"internal masked", errors.New(errors.ErrCodeInternal, "nil pointer somewhere"),
			http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(mockCompleter)
			c.On("Complete", mock.Anything, mock.Anything).Return(nil, tt.err)

			w, er := serveProxy(t, c, http.MethodPost, validBody, 0)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, er.Message)
			c.AssertExpectations(t)
		})
	}
}

func TestProxyHandler_Success(t *testing.T) {
	c := new(mockCompleter)
	c.On("Complete", mock.Anything, mock.MatchedBy(func(r *chat.Request) bool {
		return r.Model == "gpt-4o-mini" && len(r.Input) == 1 && r.Input[0].Text() == "hi"
	})).Return(&chat.Response{Text: "hello", ID: "resp_9", Model: "gpt-4o-mini", Response: json.RawMessage(`{"id":"resp_9"}`)}, nil)

	w, _ := serveProxy(t, c, http.MethodPost, validBody, 0)
	require.Equal(t, http.StatusOK, w.Code)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "resp_9", resp.ID)
	assert.JSONEq(t, `{"id":"resp_9"}`, string(resp.Response))
	c.AssertExpectations(t)
}

//Personal.AI order the ending
