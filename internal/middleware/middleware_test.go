package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	user     string
	invoices bool
}

func (f *fakeSessions) Current(*http.Request) (*session.Session, error) {
	if f.user == "" {
		return nil, nil
	}
	return &session.Session{Username: f.user, LoggedIn: true}, nil
}

func (f *fakeSessions) CanAccessInvoices(string) bool {
	return f.invoices
}

func newTestServer(surface server.Surface) *server.Server {
	logger := zerolog.Nop()
	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Manager: config.ManagerConfig{APIKey: "segredo"},
		Auth:    config.AuthConfig{LoginRateLimit: 1, LoginRateBurst: 2},
	}
	return &server.Server{Surface: surface, Config: cfg, Logger: &logger}
}

func ok(c echo.Context) error {
	return c.String(http.StatusOK, GetUser(c))
}

func newEcho(s *server.Server) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	return e
}

func TestRequireLoginRedirectsBrowsers(t *testing.T) {
	s := newTestServer(server.SurfaceWeb)
	e := newEcho(s)
	auth := NewAuthMiddleware(s, &fakeSessions{})
	e.GET("/comercial/x", ok, auth.RequireLogin)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/comercial/x", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))
}

func TestRequireLoginRejectsXHR(t *testing.T) {
	s := newTestServer(server.SurfaceWeb)
	e := newEcho(s)
	auth := NewAuthMiddleware(s, &fakeSessions{})
	e.POST("/comercial/detalhes-pedido", ok, auth.RequireLogin)

	req := httptest.NewRequest(http.MethodPost, "/comercial/detalhes-pedido", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Action)
	assert.Equal(t, errs.ActionTypeRedirect, body.Action.Type)
	assert.Equal(t, LoginPath, body.Action.Value)
}

func TestRequireLoginPassesSessionUser(t *testing.T) {
	s := newTestServer(server.SurfaceWeb)
	e := newEcho(s)
	auth := NewAuthMiddleware(s, &fakeSessions{user: "MARIA"})
	e.GET("/comercial/x", ok, auth.RequireLogin)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/comercial/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MARIA", rec.Body.String())
}

func TestRequireInvoicePermission(t *testing.T) {
	for _, allowed := range []bool{true, false} {
		s := newTestServer(server.SurfaceWeb)
		e := newEcho(s)
		auth := NewAuthMiddleware(s, &fakeSessions{user: "MARIA", invoices: allowed})
		e.GET("/comercial/notas", ok, auth.RequireLogin, auth.RequireInvoicePermission)

		req := httptest.NewRequest(http.MethodGet, "/comercial/notas", nil)
		req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if allowed {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusForbidden, rec.Code)
		}
	}
}

func TestRequireAPIKey(t *testing.T) {
	s := newTestServer(server.SurfaceManager)
	e := newEcho(s)
	e.Use(NewAPIKeyMiddleware(s).RequireAPIKey())
	e.GET("/list", ok)
	e.GET("/status", ok)
	e.GET("/docs/openapi.json", ok)

	cases := []struct {
		path   string
		key    string
		status int
	}{
		{"/list", "segredo", http.StatusOK},
		{"/list", "errado", http.StatusForbidden},
		{"/list", "", http.StatusForbidden},
		{"/status", "", http.StatusOK},
		{"/docs/openapi.json", "", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.key != "" {
			req.Header.Set(APIKeyHeader, tc.key)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "%s key=%q", tc.path, tc.key)

		if tc.status == http.StatusForbidden {
			var body ManagerError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, MessageInvalidAPIKey, body.Error)
		}
	}
}

func TestManagerErrorShape(t *testing.T) {
	s := newTestServer(server.SurfaceManager)
	e := newEcho(s)
	e.POST("/process/update", func(c echo.Context) error {
		return errs.NewOperationFailedError("Erro no pull").WithDetails("fatal: not a git repository")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process/update", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Erro no pull","details":"fatal: not a git repository"}`, rec.Body.String())
}

func TestDashboardErrorWithoutRendererIsJSON(t *testing.T) {
	s := newTestServer(server.SurfaceWeb)
	e := newEcho(s)
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("connection reset")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.Status)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(server.SurfaceManager)
	e := newEcho(s)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nada", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Rota não encontrada"}`, rec.Body.String())
}

func TestWantsJSON(t *testing.T) {
	e := echo.New()
	cases := map[string]struct {
		header, value string
		want          bool
	}{
		"xhr":     {"X-Requested-With", "XMLHttpRequest", true},
		"accept":  {echo.HeaderAccept, "application/json, text/plain", true},
		"body":    {echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8, true},
		"browser": {echo.HeaderAccept, "text/html,application/xhtml+xml", false},
	}
	for name, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tc.header, tc.value)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, tc.want, WantsJSON(c), name)
	}
}

func TestLoginLimiter(t *testing.T) {
	s := newTestServer(server.SurfaceWeb)
	e := newEcho(s)
	e.POST("/comercial/login", ok, NewRateLimitMiddleware(s).LoginLimiter())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/comercial/login", nil)
		req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
