package handler

import (
	"embed"
	"net/http"

	"github.com/grupotelles/comercial/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

//go:embed static/openapi.html static/openapi.json
var docsFS embed.FS

// OpenAPIHandler serves the manager API description and a UI to try it.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI serves the docs page. Caching is disabled so a deploy shows
// the new document right away.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := docsFS.ReadFile("static/openapi.html")
	if err != nil {
		return errors.Wrap(err, "read openapi ui")
	}
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.HTMLBlob(http.StatusOK, page)
}

func (h *OpenAPIHandler) ServeOpenAPISpec(c echo.Context) error {
	doc, err := docsFS.ReadFile("static/openapi.json")
	if err != nil {
		return errors.Wrap(err, "read openapi document")
	}
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.JSONBlob(http.StatusOK, doc)
}
