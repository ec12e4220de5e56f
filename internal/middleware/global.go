package middleware

import (
	"net/http"

	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/sqlerr"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ManagerError is the error body of the manager surface.
type ManagerError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GlobalMiddlewares groups "global" middleware and the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS allows the configured origins. With none configured only same-origin
// requests work, which is what the dashboard needs.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	origins := global.server.Config.Server.CORSAllowedOrigins
	if len(origins) == 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			"X-Requested-With", APIKeyHeader,
		},
	})
}

// RequestLogger writes one "API" line per request at a level chosen by the
// status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// The error handler writes the final status after this runs.
			// See https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode = statusOf(v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if user := GetUser(c); user != "" {
				e = e.Str("user", user)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

func statusOf(err error) int {
	var httpErr *errs.HTTPError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &echoErr):
		return echoErr.Code
	default:
		return http.StatusInternalServerError
	}
}

func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// BodyLimit bounds request bodies. Every form and JSON payload is small.
func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit("1M")
}

// normalize turns any error into an *errs.HTTPError.
func normalize(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusNotFound {
			return errs.NewNotFoundError("Rota não encontrada", false, nil)
		}
		message := http.StatusText(echoErr.Code)
		if msg, ok := echoErr.Message.(string); ok && msg != "" {
			message = msg
		}
		return &errs.HTTPError{
			Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
			Message: message,
			Status:  echoErr.Code,
		}
	}

	// Anything else is a driver or unexpected error.
	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr
	}
	return errs.NewInternalServerError()
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
//
// The manager answers {"error", "details"}. The dashboard answers JSON
// clients with the HTTPError envelope and browsers with the error page.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	httpErr := normalize(err)

	logger := *GetLogger(c)
	event := logger.Warn()
	if httpErr.Status >= 500 {
		event = logger.Error().Stack()
	}
	event.
		Err(err).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	if c.Response().Committed {
		return
	}

	var writeErr error
	switch {
	case global.server.Surface == server.SurfaceManager:
		writeErr = c.JSON(httpErr.Status, ManagerError{Error: httpErr.Message, Details: httpErr.Details})
	case WantsJSON(c) || c.Echo().Renderer == nil:
		writeErr = c.JSON(httpErr.Status, httpErr)
	default:
		writeErr = global.renderError(c, httpErr)
	}
	if writeErr != nil {
		logger.Error().Err(writeErr).Msg("failed to write error response")
	}
}

func (global *GlobalMiddlewares) renderError(c echo.Context, httpErr *errs.HTTPError) error {
	page := view.Page{
		Title:       "Erro",
		Usuario:     GetUser(c),
		PermissaoNF: HasInvoiceAccess(c),
	}

	if httpErr.Status == http.StatusNotFound && !httpErr.Override {
		page.Title = "Página não encontrada"
		return c.Render(http.StatusNotFound, view.PageNotFound, page)
	}

	page.Data = view.ErrorView{
		Code:    httpErr.Status,
		Title:   http.StatusText(httpErr.Status),
		Message: httpErr.Message,
		Detail:  httpErr.Details,
	}
	return c.Render(httpErr.Status, view.PageError, page)
}
