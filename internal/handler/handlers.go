package handler

import (
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
)

// Handlers groups the dashboard handlers so the router receives one value.
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Reports  *ReportHandler
	Charts   *ChartHandler
	Panels   *PanelHandler
	Invoices *InvoiceHandler
	Catalog  *CatalogHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		Auth:     NewAuthHandler(s, services.Auth),
		Reports:  NewReportHandler(s, services.Reports),
		Charts:   NewChartHandler(s, services.MachineLoad),
		Panels:   NewPanelHandler(s, services.Panels),
		Invoices: NewInvoiceHandler(s, services.Invoices),
		Catalog:  NewCatalogHandler(s, services.Catalog),
	}
}

// ManagerHandlers groups the handlers of the process manager.
type ManagerHandlers struct {
	Health    *HealthHandler
	OpenAPI   *OpenAPIHandler
	Processes *ProcessHandler
	Ports     *PortHandler
}

func NewManagerHandlers(s *server.Server, services *service.ManagerServices) *ManagerHandlers {
	return &ManagerHandlers{
		Health:    NewHealthHandler(s),
		OpenAPI:   NewOpenAPIHandler(s),
		Processes: NewProcessHandler(s, services.Processes),
		Ports:     NewPortHandler(s, services.Ports),
	}
}
