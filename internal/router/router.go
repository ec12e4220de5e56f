// Package router builds the echo routers of both surfaces.
//
// It registers the middlewares and maps every path to its handler.
package router

import (
	"net/http"

	"github.com/grupotelles/comercial/internal/handler"
	"github.com/grupotelles/comercial/internal/middleware"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
)

// newEcho creates an echo instance with the middleware both surfaces share.
func newEcho(m *middleware.Middlewares) *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = m.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Global.RequestLogger(),
		m.Global.Recover(),
		m.Global.Secure(),
		m.Global.CORS(),
		m.Global.BodyLimit(),
	)
	return router
}

// NewWebRouter builds the reporting dashboard.
func NewWebRouter(s *server.Server, h *handler.Handlers, services *service.Services) (*echo.Echo, error) {
	m := middleware.NewMiddlewares(s, services.Auth)

	renderer, err := view.New()
	if err != nil {
		return nil, err
	}

	router := newEcho(m)
	router.Renderer = renderer
	router.Use(m.Auth.LoadSession)

	registerSystemRoutes(router, h.Health)
	router.GET("/", h.Auth.Root)

	registerDashboardRoutes(router.Group(view.BasePath), h, m)
	return router, nil
}

// NewManagerRouter builds the process manager API.
func NewManagerRouter(s *server.Server, h *handler.ManagerHandlers) *echo.Echo {
	m := middleware.NewMiddlewares(s, nil)

	router := newEcho(m)
	router.Use(m.APIKey.RequireAPIKey())

	registerSystemRoutes(router, h.Health)
	registerDocsRoutes(router, h.OpenAPI)
	router.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/docs")
	})

	registerManagerRoutes(router, h)
	return router
}
