package router

import (
	"github.com/grupotelles/comercial/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of either
// application.
func registerSystemRoutes(r *echo.Echo, h *handler.HealthHandler) {
	r.GET("/status", h.CheckHealth)
}

func registerDocsRoutes(r *echo.Echo, h *handler.OpenAPIHandler) {
	r.GET("/docs", h.ServeOpenAPIUI)
	r.GET("/docs/openapi.json", h.ServeOpenAPISpec)
}
