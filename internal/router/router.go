package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tuition/internal/auth"
	"tuition/internal/handler"
	"tuition/internal/logger"
	"tuition/internal/model"
	"tuition/internal/service"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Log        logger.Logger
	Directory  service.DirectoryService
	JWTService *auth.JWTService
	TokenStore auth.TokenStoreInterface

	AuthHandler   *handler.AuthHandler
	CourseHandler *handler.CourseHandler
	UserHandler   *handler.UserHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.Use(requestLogger(d.Log))
	e.Use(middleware.Recover())

	e.Validator = NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", d.AuthHandler.Login)
	api.GET("/session", d.AuthHandler.Session)
	api.GET("/access", d.AuthHandler.Access)

	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ClaimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return d.JWTService.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthenticated()
		},
	})

	api.POST("/auth/logout", d.AuthHandler.Logout, jwtMiddleware)

	// Any authenticated, active session
	secured := api.Group("", jwtMiddleware, RequireSession(d.Directory, d.TokenStore, ""))
	secured.GET("/regimes/:regime/courses", d.CourseHandler.ListCourses)
	secured.GET("/regimes/:regime/courses/:id", d.CourseHandler.GetCourse)
	secured.POST("/regimes/:regime/quote", d.CourseHandler.Quote)

	// Administrators only
	admin := api.Group("", jwtMiddleware, RequireSession(d.Directory, d.TokenStore, model.RoleAdmin))
	admin.POST("/regimes/:regime/courses", d.CourseHandler.CreateCourse)
	admin.PUT("/regimes/:regime/courses/:id", d.CourseHandler.UpdateCourse)
	admin.DELETE("/regimes/:regime/courses/:id", d.CourseHandler.DeleteCourse)

	admin.GET("/users", d.UserHandler.ListUsers)
	admin.GET("/users/:id", d.UserHandler.GetUser)
	admin.POST("/users", d.UserHandler.CreateUser)
	admin.PUT("/users/:id", d.UserHandler.UpdateUser)
	admin.DELETE("/users/:id", d.UserHandler.DeleteUser)
	admin.POST("/users/:id/block", d.UserHandler.BlockUser)
	admin.POST("/users/:id/unblock", d.UserHandler.UnblockUser)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// requestLogger writes one line per request to log, so access logs share the
// application's log stream.
func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			keyvals := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.RequestID != "" {
				keyvals = append(keyvals, "request_id", v.RequestID)
			}
			switch {
			case v.Status >= 500:
				log.Error("request", append(keyvals, "err", v.Error)...)
			case v.Error != nil:
				log.Warn("request", append(keyvals, "err", v.Error)...)
			default:
				log.Info("request", keyvals...)
			}
			return nil
		},
	})
}
