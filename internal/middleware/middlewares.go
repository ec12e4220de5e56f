package middleware

import (
	"github.com/grupotelles/comercial/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups all middleware components used by the HTTP server.
//
// Auth is nil on the manager surface, which authenticates with APIKey.
type Middlewares struct {
	Global          *GlobalMiddlewares
	Auth            *AuthMiddleware
	APIKey          *APIKeyMiddleware
	ContextEnhancer *ContextEnhancer
	Tracing         *TracingMiddleware
	RateLimit       *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components using the application container.
//
// sessions may be nil when the surface has no logins.
func NewMiddlewares(s *server.Server, sessions SessionSource) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	m := &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		APIKey:          NewAPIKeyMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
	if sessions != nil {
		m.Auth = NewAuthMiddleware(s, sessions)
	}
	return m
}
