package middleware

import (
	"time"

	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitEvent is the New Relic custom event recorded on every rejection.
const RateLimitEvent = "RateLimitHit"

type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// LoginLimiter throttles login attempts per client IP with a token bucket
// of auth.login_rate_limit attempts per second and auth.login_rate_burst
// burst.
func (r *RateLimitMiddleware) LoginLimiter() echo.MiddlewareFunc {
	cfg := r.server.Config.Auth

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.LoginRateLimit),
		Burst:     cfg.LoginRateBurst,
		ExpiresIn: 10 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method != "POST"
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.NewForbiddenError("Não foi possível identificar o cliente.", true)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().Str("identifier", identifier).Msg("login rate limit exceeded")
			return errs.NewTooManyRequestsError("Muitas tentativas de login. Aguarde um instante e tente novamente.")
		},
	})
}

// RecordRateLimitHit records a rejection in New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	r.server.LoggerService.RecordEvent(RateLimitEvent, map[string]interface{}{
		"endpoint": endpoint,
		"surface":  string(r.server.Surface),
	})
}
