package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"tuition/internal/access"
	"tuition/internal/errors"
)

// respondError converts a domain error into an echo HTTP error carrying an
// ErrorResponse body.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bindAndValidate decodes the request body into req and runs struct
// validation, reporting failures per field.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			var verr errors.ValidationError
			for _, fe := range verrs {
				verr.Add(fe.Field(), "failed "+fe.Tag()+" validation")
			}
			return respondError(&verr)
		}
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}
	return nil
}

// unauthenticated is the 401 sending the client back to the login page.
func unauthenticated() error {
	httpErr := errors.MapErrorToHTTP(errors.ErrUnauthenticated).WithRedirect(access.LoginPath)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
