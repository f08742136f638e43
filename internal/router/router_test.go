package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tuition/internal/access"
	"tuition/internal/auth"
	"tuition/internal/cache"
	"tuition/internal/errors"
	"tuition/internal/handler"
	"tuition/internal/logger"
	"tuition/internal/model"
	"tuition/internal/repository"
	"tuition/internal/service"
	"tuition/internal/storage"
	"tuition/internal/tuition"
)

type testApp struct {
	e     *echo.Echo
	dir   service.DirectoryService
	store storage.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()
	store := storage.NewMemoryStore()

	catalog := service.NewCatalogService(repository.NewCatalogRepository(store), log)
	require.NoError(t, catalog.Hydrate(ctx))
	dir := service.NewDirectoryService(repository.NewUserRepository(store), log, service.WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, dir.Hydrate(ctx))

	mr := miniredis.RunT(t)
	tokens := auth.NewTokenStore(cache.New(mr.Addr(), "", 0))
	jwtService := auth.NewJWTService("test-secret")

	e := echo.New()
	Register(e, Deps{
		Log:           log,
		Directory:     dir,
		JWTService:    jwtService,
		TokenStore:    tokens,
		AuthHandler:   handler.NewAuthHandler(dir, jwtService, tokens, access.DefaultGuard(), log),
		CourseHandler: handler.NewCourseHandler(catalog, service.NewQuoteService(catalog, log)),
		UserHandler:   handler.NewUserHandler(dir),
	})
	return &testApp{e: e, dir: dir, store: store}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestQuote_ComputesForSessionUser(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "user@exemplo.com", "user123")

	rec := app.do(t, http.MethodPost, "/api/regimes/seriado/quote", token, map[string]interface{}{
		"course_id":    "5",
		"credits":      20,
		"installments": 6,
		"discount":     10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var q tuition.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.True(t, q.SemesterWithoutDiscount.Equal(decimal.NewFromInt(6060)), q.SemesterWithoutDiscount.String())
	assert.True(t, q.SemesterWithDiscount.Equal(decimal.NewFromInt(5454)), q.SemesterWithDiscount.String())
	assert.True(t, q.MonthlyWithoutDiscount.Equal(decimal.NewFromInt(1010)), q.MonthlyWithoutDiscount.String())
	assert.True(t, q.MonthlyWithDiscount.Equal(decimal.NewFromInt(909)), q.MonthlyWithDiscount.String())
}

func TestQuote_ReportsEveryInvalidField(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "user@exemplo.com", "user123")

	rec := app.do(t, http.MethodPost, "/api/regimes/aberto/quote", token, map[string]interface{}{
		"course_id":    "missing",
		"installments": 12,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Contains(t, resp.Fields, "course")
	assert.Contains(t, resp.Fields, "credits")
	assert.Contains(t, resp.Fields, "installments")
	assert.Contains(t, resp.Fields, "discount")
}

func TestCourses_RequireSession(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/regimes/seriado/courses", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, access.LoginPath, decodeError(t, rec).Redirect)

	rec = app.do(t, http.MethodGet, "/api/regimes/seriado/courses", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, access.LoginPath, decodeError(t, rec).Redirect)
}

func TestCourses_ListAndUnknownRegime(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "user@exemplo.com", "user123")

	rec := app.do(t, http.MethodGet, "/api/regimes/aberto/courses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []model.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
	assert.Len(t, courses, 10)

	rec = app.do(t, http.MethodGet, "/api/regimes/noturno/courses", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UNKNOWN_REGIME", decodeError(t, rec).Code)
}

func TestCourses_AdminOnlyMutations(t *testing.T) {
	app := newTestApp(t)

	userToken := app.login(t, "user@exemplo.com", "user123")
	rec := app.do(t, http.MethodPost, "/api/regimes/seriado/courses", userToken, map[string]interface{}{
		"name": "psicologia", "credit_price": "55.10",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, access.AccessDeniedPath, decodeError(t, rec).Redirect)

	adminToken := app.login(t, "admin@exemplo.com", "admin123")
	rec = app.do(t, http.MethodPost, "/api/regimes/seriado/courses", adminToken, map[string]interface{}{
		"name": "  psicologia ", "credit_price": "55.10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "PSICOLOGIA", created.Name)
	assert.NotEmpty(t, created.ID)

	rec = app.do(t, http.MethodPut, "/api/regimes/seriado/courses/"+created.ID, adminToken, map[string]interface{}{
		"name": "psicologia", "credit_price": -1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "credit_price")

	rec = app.do(t, http.MethodPost, "/api/regimes/seriado/courses", adminToken, map[string]interface{}{"name": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "credit_price")

	rec = app.do(t, http.MethodDelete, "/api/regimes/seriado/courses/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodGet, "/api/regimes/seriado/courses/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin_Failures(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@exemplo.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "email")
}

func TestSession_ReplacedByNewLogin(t *testing.T) {
	app := newTestApp(t)
	userToken := app.login(t, "user@exemplo.com", "user123")
	adminToken := app.login(t, "admin@exemplo.com", "admin123")

	rec := app.do(t, http.MethodGet, "/api/regimes/seriado/courses", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/regimes/seriado/courses", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "admin@exemplo.com", "admin123")

	rec := app.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, app.dir.Session())

	rec = app.do(t, http.MethodGet, "/api/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var session handler.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Nil(t, session.User)
	assert.Equal(t, "unauthenticated", session.State)
	assert.False(t, session.CanAccess)

	// logging back in restores the session, but the old token stays revoked
	app.login(t, "admin@exemplo.com", "admin123")
	rec = app.do(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccess_PageDecisions(t *testing.T) {
	app := newTestApp(t)

	check := func(path string) handler.AccessResponse {
		rec := app.do(t, http.MethodGet, "/api/access?path="+path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.AccessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	assert.Equal(t, access.LoginPath, check("/").Redirect)
	assert.True(t, check("/login").Allowed)

	app.login(t, "user@exemplo.com", "user123")
	assert.Equal(t, access.HomePath, check("/login").Redirect)
	assert.True(t, check("/").Allowed)
	assert.Equal(t, access.AccessDeniedPath, check("/gerenciar-usuarios").Redirect)

	app.login(t, "admin@exemplo.com", "admin123")
	assert.True(t, check("/gerenciar-usuarios").Allowed)
}

func TestUsers_AdminLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "admin@exemplo.com", "admin123")

	rec := app.do(t, http.MethodPost, "/api/users", token, map[string]interface{}{
		"name": "Maria", "email": "maria@exemplo.com", "password": "maria123", "role": "user",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var maria model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &maria))
	assert.True(t, maria.Active)
	assert.NotContains(t, rec.Body.String(), "maria123")

	rec = app.do(t, http.MethodPost, "/api/users", token, map[string]interface{}{
		"name": "Other", "email": "MARIA@exemplo.com", "password": "x", "role": "user",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodPost, "/api/users", token, map[string]interface{}{
		"name": "Bad", "email": "not-an-email", "role": "owner",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "role")

	rec = app.do(t, http.MethodPost, "/api/users/"+maria.ID+"/block", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "maria@exemplo.com", "password": "maria123"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_BLOCKED", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodPost, "/api/users/"+maria.ID+"/unblock", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/users/1/block", token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SELF_ACTION_BLOCKED", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodDelete, "/api/users/1", token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodDelete, "/api/users/"+maria.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/users/"+maria.ID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestUsers_DemotingSessionAdminRevokesAdminRoutes(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "admin@exemplo.com", "admin123")

	rec := app.do(t, http.MethodPut, "/api/users/1", token, map[string]interface{}{
		"name": "Administrador", "email": "admin@exemplo.com", "role": "user",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/regimes/seriado/courses", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_BlockedElsewhereLosesAccess(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	token := app.login(t, "user@exemplo.com", "user123")

	// another process blocks the account in the shared store
	repo := repository.NewUserRepository(app.store)
	users, found, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	require.True(t, found)
	for i := range users {
		if users[i].Email == "user@exemplo.com" {
			users[i].Active = false
		}
	}
	require.NoError(t, repo.SaveUsers(ctx, users))
	require.NoError(t, app.dir.Reload(ctx))

	rec := app.do(t, http.MethodGet, "/api/regimes/seriado/courses", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, access.LoginPath, decodeError(t, rec).Redirect)
}

func TestLogout_RevokedTokenCannotEndAnotherSession(t *testing.T) {
	app := newTestApp(t)
	userToken := app.login(t, "user@exemplo.com", "user123")
	rec := app.do(t, http.MethodPost, "/api/auth/logout", userToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	adminToken := app.login(t, "admin@exemplo.com", "admin123")

	rec = app.do(t, http.MethodPost, "/api/auth/logout", userToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, access.LoginPath, decodeError(t, rec).Redirect)

	require.NotNil(t, app.dir.Session())
	rec = app.do(t, http.MethodGet, "/api/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_SupersededTokenOnlyRevokesItself(t *testing.T) {
	app := newTestApp(t)
	userToken := app.login(t, "user@exemplo.com", "user123")
	adminToken := app.login(t, "admin@exemplo.com", "admin123")

	rec := app.do(t, http.MethodPost, "/api/auth/logout", userToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	session := app.dir.Session()
	require.NotNil(t, session)
	assert.Equal(t, "1", session.ID)
	rec = app.do(t, http.MethodGet, "/api/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/logout", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestLogger_WritesToAppLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(requestLogger(logger.New(logger.Config{Level: "debug", JSON: true, Output: &buf})))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Contains(t, out, `"uri":"/healthz"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"msg":"request"`)
}
