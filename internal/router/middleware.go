package router

import (
	"github.com/labstack/echo/v4"

	"tuition/internal/access"
	"tuition/internal/auth"
	"tuition/internal/errors"
	"tuition/internal/handler"
	"tuition/internal/model"
	"tuition/internal/service"
)

// RequireSession admits a request only when its token belongs to the live
// session and the token has not been revoked. A non-empty role also requires
// that role on the session user.
func RequireSession(dir service.DirectoryService, tokens auth.TokenStoreInterface, role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := handler.ClaimsFrom(c)
			if !ok {
				return unauthenticated()
			}
			revoked, err := tokens.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil || revoked {
				return unauthenticated()
			}

			session := dir.Session()
			if session != nil && session.ID != claims.UserID {
				// token from a session that has since been replaced
				session = nil
			}

			var d access.Decision
			if role == "" {
				d = access.RequireSession(session)
			} else {
				d = access.RequireRole(session, role)
			}
			if !d.Allowed {
				return deny(d)
			}
			return next(c)
		}
	}
}

func deny(d access.Decision) error {
	httpErr := errors.MapErrorToHTTP(d.Err).WithRedirect(d.Redirect)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func unauthenticated() error {
	return deny(access.RequireSession(nil))
}
