// Package handlers implements the dashboard server's HTTP endpoints.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
	"github.com/turtacn/bref-insight/pkg/types/chat"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes the {message, code} error body.
func writeError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	writeJSON(w, statusCode, chat.ErrorResponse{Message: message, Code: code.String()})
}

// writeAppError maps err onto its HTTP status.  Server-side failures keep
// their message only when the code is an upstream language-model error;
// everything else 5xx is masked.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	msg := err.Error()
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= 500 {
		logger.Error("request failed", logging.String("code", code.String()), logging.Err(err))
		if errors.ModuleForCode(code) != "LLM" {
			msg = errors.DefaultMessageForCode(errors.ErrCodeInternal)
		}
	}
	writeError(w, status, code, msg)
}

//Personal.AI order the ending
