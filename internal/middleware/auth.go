package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/session"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

// LoginPath is where unauthenticated dashboard requests are sent.
const LoginPath = view.BasePath + "/login"

// APIKeyHeader carries the manager API key.
const APIKeyHeader = "x-api-key"

// MessageInvalidAPIKey is returned for a missing or wrong API key.
const MessageInvalidAPIKey = "Acesso negado. API Key inválida."

var errInvalidAPIKey = errors.New("invalid api key")

// SessionSource resolves the dashboard session of a request.
type SessionSource interface {
	Current(r *http.Request) (*session.Session, error)
	CanAccessInvoices(username string) bool
}

// AuthMiddleware enforces dashboard logins.
type AuthMiddleware struct {
	server   *server.Server
	sessions SessionSource
}

func NewAuthMiddleware(s *server.Server, sessions SessionSource) *AuthMiddleware {
	return &AuthMiddleware{server: s, sessions: sessions}
}

// LoadSession stores the user of a valid session in the echo context without
// requiring one. Store failures are logged and treated as logged out.
func (auth *AuthMiddleware) LoadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := auth.sessions.Current(c.Request())
		if err != nil {
			GetLogger(c).Warn().Err(err).Msg("could not load session")
		}
		if sess != nil {
			c.Set(UserKey, sess.Username)
			c.Set(InvoiceAccessKey, auth.sessions.CanAccessInvoices(sess.Username))

			l := GetLogger(c).With().Str("user", sess.Username).Logger()
			setLogger(c, &l)
		}
		return next(c)
	}
}

// RequireLogin rejects requests without a logged-in session. Browsers are
// redirected to the login page; XHR and JSON clients get a 401 carrying a
// redirect action.
func (auth *AuthMiddleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return auth.LoadSession(func(c echo.Context) error {
		if GetUser(c) != "" {
			return next(c)
		}

		if WantsJSON(c) {
			return errs.NewUnauthorizedError("Sessão expirada. Faça login novamente.", true).
				WithAction(&errs.Action{
					Type:    errs.ActionTypeRedirect,
					Message: "Faça login novamente.",
					Value:   LoginPath,
				})
		}
		return c.Redirect(http.StatusFound, LoginPath)
	})
}

// RequireInvoicePermission allows only users on the invoice allow-list. It
// must run after RequireLogin.
func (auth *AuthMiddleware) RequireInvoicePermission(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !HasInvoiceAccess(c) {
			GetLogger(c).Warn().Msg("invoice access denied")
			return errs.NewForbiddenError("Você não tem permissão para acessar as notas fiscais.", true)
		}
		return next(c)
	}
}

// WantsJSON reports whether the client expects a JSON answer instead of a
// page.
func WantsJSON(c echo.Context) bool {
	req := c.Request()
	if req.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.Contains(req.Header.Get(echo.HeaderAccept), "json") {
		return true
	}
	return strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// APIKeyMiddleware guards the manager surface.
type APIKeyMiddleware struct {
	server *server.Server
}

func NewAPIKeyMiddleware(s *server.Server) *APIKeyMiddleware {
	return &APIKeyMiddleware{server: s}
}

// RequireAPIKey checks the x-api-key header against the configured key.
// The documentation and the status endpoint stay public.
func (k *APIKeyMiddleware) RequireAPIKey() echo.MiddlewareFunc {
	expected := []byte(k.server.Config.Manager.APIKey)

	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + APIKeyHeader,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/status" || p == "/docs" || strings.HasPrefix(p, "/docs/")
		},
		Validator: func(key string, c echo.Context) (bool, error) {
			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
				return false, errInvalidAPIKey
			}
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			GetLogger(c).Warn().Str("ip", c.RealIP()).Msg("rejected api key")
			return errs.NewForbiddenError(MessageInvalidAPIKey, true)
		},
	})
}
