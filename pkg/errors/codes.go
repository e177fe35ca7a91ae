package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.  The
// prefix before the underscore names the owning module.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMethodNotAllowed   ErrorCode = "COMMON_017"
)

// Hierarchy / relevance Error Codes
const (
	ErrCodeHierarchyMalformed ErrorCode = "BREF_001"
	ErrCodeNodeNotFound       ErrorCode = "BREF_002"
	ErrCodeNodeNotLeaf        ErrorCode = "BREF_003"
	ErrCodeNodeNotRelevant    ErrorCode = "BREF_004"
	ErrCodeDepthExceeded      ErrorCode = "BREF_005"
	ErrCodeNoPollutant        ErrorCode = "BREF_006"
)

// Document Store Error Codes
const (
	ErrCodeFetchFailed      ErrorCode = "STORE_001"
	ErrCodeFetchTimeout     ErrorCode = "STORE_002"
	ErrCodeResourceNotFound ErrorCode = "STORE_003"
	ErrCodeDecodeFailed     ErrorCode = "STORE_004"
	ErrCodeStaleGeneration  ErrorCode = "STORE_005"
	ErrCodeSourceMisconfig  ErrorCode = "STORE_006"
)

// Chat Error Codes
const (
	ErrCodeEmptyContext  ErrorCode = "CHAT_001"
	ErrCodeChatBusy      ErrorCode = "CHAT_002"
	ErrCodeStaleResponse ErrorCode = "CHAT_003"
	ErrCodeEmptyMessage  ErrorCode = "CHAT_004"
)

// Language-model upstream Error Codes
const (
	ErrCodeLLMUpstream      ErrorCode = "LLM_001"
	ErrCodeLLMRateLimited   ErrorCode = "LLM_002"
	ErrCodeLLMAuthFailed    ErrorCode = "LLM_003"
	ErrCodeLLMEmptyOutput   ErrorCode = "LLM_004"
	ErrCodeLLMNotConfigured ErrorCode = "LLM_005"
)

// Short aliases used at call sites.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")

	CodeInternal         = ErrCodeInternal
	CodeInvalidParam     = ErrCodeBadRequest
	CodeUnauthorized     = ErrCodeUnauthorized
	CodeNotFound         = ErrCodeNotFound
	CodeConflict         = ErrCodeConflict
	CodeRateLimit        = ErrCodeTooManyRequests
	CodeTimeout          = ErrCodeTimeout
	CodeMethodNotAllowed = ErrCodeMethodNotAllowed

	CodeNodeNotFound       = ErrCodeNodeNotFound
	CodeNodeNotSelectable  = ErrCodeNodeNotLeaf
	CodeNodeNotRelevant    = ErrCodeNodeNotRelevant
	CodeFetchFailed        = ErrCodeFetchFailed
	CodeFetchTimeout       = ErrCodeFetchTimeout
	CodeResourceNotFound   = ErrCodeResourceNotFound
	CodeStaleResponse      = ErrCodeStaleResponse
	CodeEmptyContext       = ErrCodeEmptyContext
	CodeChatBusy           = ErrCodeChatBusy
	CodeLLMRateLimited     = ErrCodeLLMRateLimited
	CodeLLMAuthFailed      = ErrCodeLLMAuthFailed
	CodeLLMUpstream        = ErrCodeLLMUpstream
	CodeLLMNotConfigured   = ErrCodeLLMNotConfigured
	CodeHierarchyMalformed = ErrCodeHierarchyMalformed
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMethodNotAllowed:   http.StatusMethodNotAllowed,

	ErrCodeHierarchyMalformed: http.StatusUnprocessableEntity,
	ErrCodeNodeNotFound:       http.StatusNotFound,
	ErrCodeNodeNotLeaf:        http.StatusConflict,
	ErrCodeNodeNotRelevant:    http.StatusConflict,
	ErrCodeDepthExceeded:      http.StatusUnprocessableEntity,
	ErrCodeNoPollutant:        http.StatusBadRequest,

	ErrCodeFetchFailed:      http.StatusBadGateway,
	ErrCodeFetchTimeout:     http.StatusGatewayTimeout,
	ErrCodeResourceNotFound: http.StatusNotFound,
	ErrCodeDecodeFailed:     http.StatusUnprocessableEntity,
	ErrCodeStaleGeneration:  http.StatusConflict,
	ErrCodeSourceMisconfig:  http.StatusInternalServerError,

	ErrCodeEmptyContext:  http.StatusBadRequest,
	ErrCodeChatBusy:      http.StatusConflict,
	ErrCodeStaleResponse: http.StatusConflict,
	ErrCodeEmptyMessage:  http.StatusBadRequest,

	ErrCodeLLMUpstream:      http.StatusInternalServerError,
	ErrCodeLLMRateLimited:   http.StatusTooManyRequests,
	ErrCodeLLMAuthFailed:    http.StatusUnauthorized,
	ErrCodeLLMEmptyOutput:   http.StatusInternalServerError,
	ErrCodeLLMNotConfigured: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeMethodNotAllowed:   "method not allowed",

	ErrCodeNodeNotFound:    "hierarchy node not found",
	ErrCodeNodeNotLeaf:     "only leaf sections can be selected",
	ErrCodeNodeNotRelevant: "section is not relevant to the active pollutant",

	ErrCodeFetchFailed:  "document fetch failed",
	ErrCodeFetchTimeout: "document fetch timed out",

	ErrCodeEmptyContext:  "add patents or BREF sections to the chat context first",
	ErrCodeChatBusy:      "a chat request is already in flight",
	ErrCodeStaleResponse: "chat context changed while the request was in flight",

	ErrCodeLLMRateLimited: "rate limit exceeded. Please try again later.",
	ErrCodeLLMAuthFailed:  "authentication error with the language model API",
	ErrCodeLLMUpstream:    "language model request failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
