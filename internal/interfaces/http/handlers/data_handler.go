package handlers

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// DocumentFetcher resolves a fixture key.  *docstore.Store satisfies it.
type DocumentFetcher interface {
	Fetch(ctx context.Context, key docstore.Key) ([]byte, error)
}

// DataHandler serves dashboard fixtures under /data/*.
type DataHandler struct {
	docs    DocumentFetcher
	logger  logging.Logger
	modTime time.Time
}

// NewDataHandler creates a fixture file handler.
func NewDataHandler(docs DocumentFetcher, logger logging.Logger) *DataHandler {
	return &DataHandler{docs: docs, logger: logger, modTime: time.Now()}
}

// ServeHTTP handles GET and HEAD for a single fixture.
func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	raw := chi.URLParam(r, "*")
	if raw == "" {
		raw = strings.TrimPrefix(r.URL.Path, "/data/")
	}
	rel, err := docstore.CleanPath(raw)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	data, err := h.docs.Fetch(r.Context(), docstore.FileKey{Path: rel})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeResourceNotFound) {
			h.logger.Debug("fixture not found", logging.String("path", rel))
		}
		writeAppError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", contentType(rel))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, path.Base(rel), h.modTime, bytes.NewReader(data))
}

func contentType(p string) string {
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv; charset=utf-8"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

//Personal.AI order the ending
