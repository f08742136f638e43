package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition/internal/errors"
)

type structValidator struct{ v *validator.Validate }

func (s structValidator) Validate(i interface{}) error { return s.v.Struct(i) }

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"blocked", errors.ErrAccountBlocked, http.StatusForbidden, "ACCOUNT_BLOCKED"},
		{"wrapped not found", fmt.Errorf("lookup: %w", errors.ErrCourseNotFound), http.StatusNotFound, "COURSE_NOT_FOUND"},
		{"unexpected", fmt.Errorf("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := respondError(tt.err)
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.status, he.Code)
			resp, ok := he.Message.(errors.ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	he := respondError(fmt.Errorf("dial tcp 10.0.0.1:3306: refused")).(*echo.HTTPError)
	assert.NotContains(t, he.Message.(errors.ErrorResponse).Error, "10.0.0.1")
}

func TestBindAndValidate(t *testing.T) {
	e := echo.New()
	e.Validator = structValidator{v: validator.New()}

	newCtx := func(body string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return e.NewContext(req, httptest.NewRecorder())
	}

	var ok LoginRequest
	require.NoError(t, bindAndValidate(newCtx(`{"email":"a@b.c","password":"x"}`), &ok))
	assert.Equal(t, "a@b.c", ok.Email)

	var missing LoginRequest
	he := bindAndValidate(newCtx(`{"email":"a@b.c"}`), &missing).(*echo.HTTPError)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, he.Message.(errors.ErrorResponse).Fields, "Password")

	var broken LoginRequest
	he = bindAndValidate(newCtx(`{"email":`), &broken).(*echo.HTTPError)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "INVALID_BODY", he.Message.(errors.ErrorResponse).Code)
}

func TestUserRequest_ActiveDefaultsToTrue(t *testing.T) {
	assert.True(t, UserRequest{}.input().Active)
	inactive := false
	assert.False(t, UserRequest{Active: &inactive}.input().Active)
}
