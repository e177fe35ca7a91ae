// Package errors provides the structured error type shared by every layer of
// bref-insight.  Domain, application, infrastructure and interface code return
// *AppError so that HTTP handlers, the CLI and the logger can classify a
// failure by its ErrorCode without string matching.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call stack starting above the caller.
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type of the module.  It supports
// errors.Is / errors.As through Unwrap.
//
// Usage:
//
//	return errors.New(errors.CodeNodeNotSelectable, "node BREF_CWW_4.2 has children")
//	return errors.Wrap(err, errors.CodeFetchFailed, "fetch summary.json")
type AppError struct {
	// Code classifies the failure.
	Code ErrorCode

	// Message is safe to show to end users.
	Message string

	// Detail carries supplementary debugging context (keys, ids, paths).
	Detail string

	// Cause is the wrapped lower-level error, if any.
	Cause error

	// Stack is the call stack captured by New and Wrap.  It is not part of
	// Error() output.
	Stack string
}

// Error renders "[<code>] <message>: <detail>"; the detail segment is
// omitted when empty and the cause is appended after " <- ".
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Code.String())
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(" <- ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError by code, so sentinel errors created with New
// can be compared with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// WithDetail returns a copy of the receiver with Detail set.  It is safe to
// call on a nil pointer.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a copy of the receiver with Cause set.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Factories
// ─────────────────────────────────────────────────────────────────────────────

// New constructs an AppError with a captured stack.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with fmt.Sprintf formatting of the message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError around err.  A nil err yields nil so Wrap can
// be used inline.  When code is CodeUnknown and err already carries an
// AppError, the original code is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var ae *AppError
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Code == code {
			return true
		}
		err = ae.Cause
	}
	return false
}

// IsNotFound reports whether err's chain contains a not-found classification.
func IsNotFound(err error) bool {
	for err != nil {
		var ae *AppError
		if !errors.As(err, &ae) {
			return false
		}
		switch ae.Code {
		case CodeNotFound, CodeNodeNotFound, CodeResourceNotFound:
			return true
		}
		err = ae.Cause
	}
	return false
}

// GetCode returns the code of the first AppError in err's chain, CodeOK for
// a nil error and CodeUnknown when the chain carries no AppError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience constructors
// ─────────────────────────────────────────────────────────────────────────────

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Stack: captureStack(1)}
}

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message, Stack: captureStack(1)}
}

// InvalidState constructs a CodeConflict AppError for state violations.
func InvalidState(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Stack: captureStack(1)}
}

// Unauthorized constructs a CodeUnauthorized AppError.
func Unauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, Stack: captureStack(1)}
}

// Internal constructs a CodeInternal AppError.  Log the underlying cause
// before returning it.
func Internal(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Stack: captureStack(1)}
}

// RateLimit constructs a CodeRateLimit AppError.
func RateLimit(message string) *AppError {
	return &AppError{Code: CodeRateLimit, Message: message, Stack: captureStack(1)}
}

// Timeout constructs a CodeTimeout AppError.
func Timeout(message string) *AppError {
	return &AppError{Code: CodeTimeout, Message: message, Stack: captureStack(1)}
}

//Personal.AI order the ending
