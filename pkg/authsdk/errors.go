package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes carried in the "error" field of every failure body.
const (
	CodeValidation            = "validation_error"
	CodeAlreadyExists         = "already_exists"
	CodeInvalidCredentials    = "invalid_credentials"
	CodeNoToken               = "no_token"
	CodeInvalidToken          = "invalid_token"
	CodeUserNotFound          = "user_not_found"
	CodeInvalidOrExpiredToken = "invalid_or_expired_token"
	CodeNotFound              = "not_found"
	CodeInvalidSignature      = "invalid_signature"
	CodeRateLimitExceeded     = "rate_limit_exceeded"
	CodeServerError           = "server_error"
)

// APIError is a failed API call. The server writes it with WriteError and
// the client rebuilds it from the response body.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is matches on status and code so callers can use errors.Is against the
// predefined values below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Code == t.Code
}

// WriteError encodes the error as the standard failure body.
func (e *APIError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   e.Code,
		Message: e.Message,
	})
}

// WithMessage returns a copy of e with a different message.
func (e *APIError) WithMessage(msg string) *APIError {
	cp := *e
	cp.Message = msg
	return &cp
}

// NewAPIError creates an APIError.
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, Code: code, Message: message}
}

var (
	ErrValidation = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeValidation,
		Message:    "the request is malformed or missing required fields",
	}

	ErrAlreadyExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       CodeAlreadyExists,
		Message:    "User already exists",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidCredentials,
		Message:    "Invalid credentials",
	}

	ErrNoToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeNoToken,
		Message:    "No token provided",
	}

	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidToken,
		Message:    "Invalid token",
	}

	ErrUserNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       CodeUserNotFound,
		Message:    "User not found",
	}

	ErrInvalidOrExpiredToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidOrExpiredToken,
		Message:    "Invalid or expired token",
	}

	ErrInvalidSignature = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidSignature,
		Message:    "Invalid webhook signature",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeServerError,
		Message:    "Server error",
	}
)

func parseErrorResponse(status int, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return &APIError{StatusCode: status, Code: er.Error, Message: er.Message}
	}

	code := CodeServerError
	if status == http.StatusTooManyRequests {
		code = CodeRateLimitExceeded
	}
	return &APIError{
		StatusCode: status,
		Code:       code,
		Message:    fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}
