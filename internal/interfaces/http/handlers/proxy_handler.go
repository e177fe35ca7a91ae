package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

// DefaultMaxBodySize caps proxy request bodies.
const DefaultMaxBodySize int64 = 1 << 20

// Completer forwards a completion request to the language model.
type Completer interface {
	Complete(ctx context.Context, req *chat.Request) (*chat.Response, error)
}

// ProxyHandler serves POST /api/openai: it validates the body, forwards it
// upstream and returns {text, id, model, response}.
type ProxyHandler struct {
	completer   Completer
	validate    *validator.Validate
	maxBodySize int64
	logger      logging.Logger
}

// NewProxyHandler creates a ProxyHandler.  maxBodySize <= 0 selects
// DefaultMaxBodySize.
func NewProxyHandler(completer Completer, maxBodySize int64, logger logging.Logger) *ProxyHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ProxyHandler{completer: completer, validate: v, maxBodySize: maxBodySize, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	var req chat.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeValidation, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "invalid JSON body")
		return
	}
	if msg := h.validationMessage(&req); msg != "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, msg)
		return
	}

	logger := logging.FromContext(r.Context(), h.logger)
	start := time.Now()
	resp, err := h.completer.Complete(r.Context(), &req)
	if err != nil {
		writeAppError(w, logger, err)
		return
	}
	logger.Debug("completion proxied",
		logging.String("model", resp.Model),
		logging.Int("input_messages", len(req.Input)),
		logging.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, resp)
}

// validationMessage returns "" for a valid request.  Missing model or input
// is reported as such; any other failure names the offending fields.
func (h *ProxyHandler) validationMessage(req *chat.Request) string {
	err := h.validate.Struct(req)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return "invalid request"
	}

	var missing, invalid []string
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		if (ns == "model" || ns == "input") && (fe.Tag() == "required" || fe.Tag() == "min") {
			missing = append(missing, ns)
			continue
		}
		invalid = append(invalid, ns)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "Missing required fields: " + strings.Join(missing, ", ")
	}
	return "Invalid fields: " + strings.Join(invalid, ", ")
}

//Personal.AI order the ending
