package handler

import (
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/sqlerr"
	"github.com/labstack/echo/v4"
)

// CatalogHandler serves the stored report catalog.
type CatalogHandler struct {
	Handler
	catalog *service.CatalogService
}

func NewCatalogHandler(s *server.Server, catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		Handler: NewHandler(s),
		catalog: catalog,
	}
}

func (h *CatalogHandler) Available(c echo.Context, _ *NoRequest) ([]service.CatalogItem, error) {
	items, err := h.catalog.Available(c.Request().Context())
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return items, nil
}

func (h *CatalogHandler) Run(c echo.Context, req *CatalogReportRequest) (*ReportPage, error) {
	r, err := h.catalog.Run(c.Request().Context(), service.CatalogRequest{
		TipoRelatorio: req.TipoRelatorio,
		ColunaData:    req.ColunaData,
		DataInicio:    req.DataInicio,
		DataFim:       req.DataFim,
	})
	if err != nil {
		return nil, err
	}
	return &ReportPage{Report: r}, nil
}
