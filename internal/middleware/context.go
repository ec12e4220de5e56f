package middleware

import (
	"context"

	"github.com/grupotelles/comercial/internal/logger"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	// UserKey holds the logged-in username in the echo context.
	UserKey = "user"

	// InvoiceAccessKey holds whether the user may see invoices.
	InvoiceAccessKey = "invoice_access"

	// LoggerKey is used as the key for storing the request-scoped logger.
	LoggerKey = "logger"

	loggerContextKey contextKey = "logger"
)

// ContextEnhancer builds the request-scoped logger.
//
// The logger carries request_id, method, path and ip, the New Relic trace
// ids when a transaction exists and the user when the session was loaded
// before it runs. It is stored both in the echo context and in the request
// context, so code that only sees a context.Context can log with it.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			if user := GetUser(c); user != "" {
				contextLogger = contextLogger.With().Str("user", user).Logger()
			}

			setLogger(c, &contextLogger)
			return next(c)
		}
	}
}

func setLogger(c echo.Context, l *zerolog.Logger) {
	c.Set(LoggerKey, l)
	ctx := context.WithValue(c.Request().Context(), loggerContextKey, l)
	c.SetRequest(c.Request().WithContext(ctx))
}

// GetUser returns the logged-in username, or "".
func GetUser(c echo.Context) string {
	if user, ok := c.Get(UserKey).(string); ok {
		return user
	}
	return ""
}

// HasInvoiceAccess reports whether the logged-in user may see invoices.
func HasInvoiceAccess(c echo.Context) bool {
	ok, _ := c.Get(InvoiceAccessKey).(bool)
	return ok
}

// GetLogger retrieves the request-scoped logger from Echo context.
//
// If EnhanceContext middleware didn't run, it returns a no-op logger.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}
	logger := zerolog.Nop()
	return &logger
}

// LoggerFromContext returns the request logger stored by EnhanceContext, or
// a no-op logger.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*zerolog.Logger); ok {
		return logger
	}
	logger := zerolog.Nop()
	return &logger
}
