// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as authentication (dashboard sessions and the manager API key),
// request logging, CORS, rate limiting, and panic recovery
package middleware
