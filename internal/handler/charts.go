package handler

import (
	"strings"

	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/labstack/echo/v4"
)

// DefaultDateKind is the date the chart groups by when the form sends none.
const DefaultDateKind = "entrega"

// RowsResponse wraps detail rows fetched by the chart script.
type RowsResponse struct {
	Data []database.Record `json:"data"`
}

// ChartHandler serves the machine load chart and its drill-downs.
type ChartHandler struct {
	Handler
	machineLoad *service.MachineLoadService
}

func NewChartHandler(s *server.Server, machineLoad *service.MachineLoadService) *ChartHandler {
	return &ChartHandler{
		Handler:     NewHandler(s),
		machineLoad: machineLoad,
	}
}

// Form renders the chart page before any filter is applied.
func (h *ChartHandler) Form(c echo.Context, _ *NoRequest) (*service.Chart, error) {
	return &service.Chart{
		Series:      map[string][]service.ChartPoint{},
		Maintenance: map[string]float64{},
		Filters:     service.ChartFilters{TipoData: DefaultDateKind},
		Machines:    []string{},
	}, nil
}

func (h *ChartHandler) Chart(c echo.Context, req *ChartRequest) (*service.Chart, error) {
	if req.StartDate == "" || req.EndDate == "" {
		return nil, errs.NewBadRequestError("Informe a data inicial e a data final.", true, nil, nil, nil)
	}
	kind := req.TipoData
	if kind == "" {
		kind = DefaultDateKind
	}

	return h.machineLoad.Chart(c.Request().Context(), service.ChartFilters{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		TipoData:  kind,
		Filtro:    req.Filtro,
		Entrega:   req.Entrega,
		Familia:   req.Familia,
		Ativo:     req.Ativo,
		Atraso:    req.Atraso,
	})
}

func (h *ChartHandler) MaintenanceDetails(c echo.Context, req *MaintenanceRequest) (*RowsResponse, error) {
	rows, err := h.machineLoad.MaintenanceDetails(c.Request().Context(),
		strings.TrimSpace(req.Date), strings.TrimSpace(req.Machine))
	if err != nil {
		return nil, err
	}
	return &RowsResponse{Data: rows}, nil
}

func (h *ChartHandler) OrderDetails(c echo.Context, req *OrderDetailsRequest) (*RowsResponse, error) {
	filters := service.ChartFilters{
		Filtro:  req.Filtro,
		Entrega: req.Entrega,
		Familia: req.Familia,
		Ativo:   req.Ativo,
		Atraso:  req.Atraso,
	}
	rows, err := h.machineLoad.OrderDetails(c.Request().Context(),
		strings.TrimSpace(req.Date), strings.TrimSpace(req.Machine), filters)
	if err != nil {
		return nil, err
	}
	return &RowsResponse{Data: rows}, nil
}

// PanelHandler serves the billing and production KPI pages.
type PanelHandler struct {
	Handler
	panels *service.PanelService
}

func NewPanelHandler(s *server.Server, panels *service.PanelService) *PanelHandler {
	return &PanelHandler{
		Handler: NewHandler(s),
		panels:  panels,
	}
}

func (h *PanelHandler) Billing(c echo.Context, req *PeriodRequest) (*service.BillingPanel, error) {
	return h.panels.Billing(c.Request().Context(), req.StartDate, req.EndDate)
}

func (h *PanelHandler) Production(c echo.Context, req *PeriodRequest) (*service.ProductionPanel, error) {
	return h.panels.Production(c.Request().Context(), req.StartDate, req.EndDate)
}
