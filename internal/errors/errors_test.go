package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"blocked", ErrAccountBlocked, http.StatusForbidden, "ACCOUNT_BLOCKED"},
		{"wrapped access denied", fmt.Errorf("guard: %w", ErrAccessDenied), http.StatusForbidden, "ACCESS_DENIED"},
		{"self action", ErrSelfActionBlocked, http.StatusConflict, "SELF_ACTION_BLOCKED"},
		{"course missing", ErrCourseNotFound, http.StatusNotFound, "COURSE_NOT_FOUND"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestValidationError(t *testing.T) {
	var verr ValidationError
	assert.Nil(t, verr.OrNil())

	verr.Add("credits", "must be positive")
	verr.Add("course", "select a course")

	err := verr.OrNil()
	assert.EqualError(t, err, "validation failed: course: select a course; credits: must be positive")

	httpErr := MapErrorToHTTP(fmt.Errorf("quote: %w", err))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "select a course", httpErr.ToErrorResponse().Fields["course"])
}
