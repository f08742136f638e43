package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair matches no user.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountBlocked is returned when the credentials match an inactive user.
	ErrAccountBlocked = errors.New("account is blocked, contact an administrator")
	// ErrUnauthenticated is returned when a gated capability is reached without a session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrAccessDenied is returned when the session's role is insufficient.
	ErrAccessDenied = errors.New("access denied")
	// ErrSelfActionBlocked is returned when a user tries to delete or block their own account.
	ErrSelfActionBlocked = errors.New("cannot delete or block the current session's account")
	// ErrUserNotFound is returned when a user id is not in the directory.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when another user already uses the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrCourseNotFound is returned when a course id is not in the regime.
	ErrCourseNotFound = errors.New("course not found")
	// ErrUnknownRegime is returned for a regime other than seriado or aberto.
	ErrUnknownRegime = errors.New("unknown regime")
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// OrNil returns e when any field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
	Redirect   string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// WithRedirect attaches the page the client should navigate to.
func (e *HTTPError) WithRedirect(target string) *HTTPError {
	e.Redirect = target
	return e
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:    e.Message,
		Code:     e.Code,
		Fields:   e.Fields,
		Redirect: e.Redirect,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpErr := NewHTTPError(http.StatusBadRequest, "validation failed", "VALIDATION_ERROR")
		httpErr.Fields = verr.Fields
		return httpErr
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrAccountBlocked):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCOUNT_BLOCKED")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrAccessDenied):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCESS_DENIED")
	case errors.Is(err, ErrSelfActionBlocked):
		return NewHTTPError(http.StatusConflict, err.Error(), "SELF_ACTION_BLOCKED")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrCourseNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "COURSE_NOT_FOUND")
	case errors.Is(err, ErrUnknownRegime):
		return NewHTTPError(http.StatusNotFound, err.Error(), "UNKNOWN_REGIME")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
