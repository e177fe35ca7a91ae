package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

func newDataRouter(t *testing.T, files map[string]string) http.Handler {
	t.Helper()
	src := docstore.SourceFunc(func(_ context.Context, p string) ([]byte, error) {
		if p == "broken.json" {
			return nil, errors.New(errors.ErrCodeFetchFailed, "upstream 502")
		}
		d, ok := files[p]
		if !ok {
			return nil, errors.New(errors.ErrCodeResourceNotFound, "resource not found").WithDetail(p)
		}
		return []byte(d), nil
	})
	store, err := docstore.NewStore(src, logging.NewNopLogger())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Handle("/data/*", NewDataHandler(store, logging.NewNopLogger()))
	return r
}

func TestDataHandler_ServesFixtures(t *testing.T) {
	r := newDataRouter(t, map[string]string{
		"summary.json":      `{"pollutants":["NOx"]}`,
		"bref_sections.csv": "code,title\n",
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data/summary.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"pollutants":["NOx"]}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data/bref_sections.csv", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestDataHandler_Head(t *testing.T) {
	r := newDataRouter(t, map[string]string{"summary.json": `{}`})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/data/summary.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDataHandler_Errors(t *testing.T) {
	r := newDataRouter(t, map[string]string{})
	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"missing", http.MethodGet, "/data/pollutants/nox_top.json", http.StatusNotFound},
		{"upstream failure", http.MethodGet, "/data/broken.json", http.StatusBadGateway},
		{"empty path", http.MethodGet, "/data/", http.StatusBadRequest},
		{"post", http.MethodPost, "/data/summary.json", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/B.JSON"))
	assert.Equal(t, "application/octet-stream", contentType("noext"))
}

//Personal.AI order the ending
