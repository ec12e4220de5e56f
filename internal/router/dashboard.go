package router

import (
	"net/http"

	"github.com/grupotelles/comercial/internal/handler"
	"github.com/grupotelles/comercial/internal/middleware"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
)

// positionKinds are the stock snapshots served under
// /consultar-posicao-estoque-<kind>.
var positionKinds = []string{"bobina", "aparas", "acabado", "acabado-hist"}

func registerDashboardRoutes(g *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	base := h.Health.Handler
	reports := handler.ReportResponseHandler{}

	g.GET("/login", h.Auth.LoginForm)
	g.POST("/login", h.Auth.Login, m.RateLimit.LoginLimiter())
	g.GET("/logout", h.Auth.Logout)
	g.GET("/forcar-erro", h.Auth.ForceError)

	auth := g.Group("", m.Auth.RequireLogin)
	auth.GET("", h.Auth.Index)
	auth.GET("/", h.Auth.Index)
	auth.GET("/documentacao", h.Auth.Documentation)

	auth.POST("/observacoes-comerciais", h.Reports.SaveObservation)

	// Balances
	auth.GET("/consulta-saldo-exp", handler.HandleWith(base, h.Reports.ExpeditionBalance, handler.NewRequest[handler.NoRequest], reports))
	auth.GET("/consulta-saldo-exp-diferenca", handler.HandleWith(base, h.Reports.ExpeditionDifference, handler.NewRequest[handler.NoRequest], reports))
	auth.GET("/consulta-saldo-aparas-diferenca", handler.HandleWith(base, h.Reports.ScrapDifference, handler.NewRequest[handler.NoRequest], reports))
	auth.GET("/consulta-saldo-bobina-diferenca", handler.HandleWith(base, h.Reports.ReelDifference, handler.NewRequest[handler.NoRequest], reports))
	auth.GET("/consulta-saldo-exp-datasul", handler.HandleWith(base, h.Reports.ExpeditionDataSul, handler.NewRequest[handler.NoRequest], reports))

	stock := handler.HandleWith(base, h.Reports.StockBalance, handler.NewRequest[handler.StockBalanceRequest], reports)
	auth.GET("/consultar-saldo-estoque", stock)
	auth.POST("/consultar-saldo-estoque", stock)

	for _, kind := range positionKinds {
		position := handler.HandleWith(base, h.Reports.Position(kind), handler.NewRequest[handler.PositionRequest], reports)
		auth.GET("/consultar-posicao-estoque-"+kind, position)
		auth.POST("/consultar-posicao-estoque-"+kind, position)
	}

	auth.GET("/status-maquina/:maquinaId", handler.HandleWith(base, h.Reports.MachineStatus, handler.NewRequest[handler.MachineStatusRequest], reports))

	// Machine load
	chartPage := handler.NewPageResponseHandler(view.PageChart, "Carga Máquina", "CM")
	auth.GET("/grafico-cm", handler.HandleWith(base, h.Charts.Form, handler.NewRequest[handler.NoRequest], chartPage))
	auth.POST("/grafico-cm", handler.HandleWith(base, h.Charts.Chart, handler.NewRequest[handler.ChartRequest], chartPage))
	auth.POST("/detalhes-manutencao", handler.Handle(base, h.Charts.MaintenanceDetails, http.StatusOK, handler.NewRequest[handler.MaintenanceRequest]))
	auth.POST("/detalhes-pedido", handler.Handle(base, h.Charts.OrderDetails, http.StatusOK, handler.NewRequest[handler.OrderDetailsRequest]))
	auth.POST("/consulta_carg", handler.HandleWith(base, h.Reports.Integration, handler.NewRequest[handler.IntegrationRequest], reports))

	// Panels
	auth.POST("/relatorio-faturamento", handler.HandleWith(base, h.Panels.Billing, handler.NewRequest[handler.PeriodRequest],
		handler.NewPageResponseHandler(view.PageBilling, "Relatório de Faturamento", "Faturamento")))
	auth.POST("/relatorio-producao", handler.HandleWith(base, h.Panels.Production, handler.NewRequest[handler.PeriodRequest],
		handler.NewPageResponseHandler(view.PageProduction, "Relatório de Produção", "Produção")))

	// Orders
	auth.POST("/consulta_item", handler.HandleWith(base, h.Reports.SearchItems, handler.NewRequest[handler.ItemSearchRequest], reports))
	auth.POST("/status_item", handler.HandleWith(base, h.Reports.ItemStatus, handler.NewRequest[handler.ItemStatusRequest], reports))
	auth.POST("/Consulta-Peso-Pedido", handler.HandleWith(base, h.Reports.OrderWeight, handler.NewRequest[handler.OrderWeightRequest], reports))

	// Stored reports
	auth.GET("/report/fgv-santelisa", handler.HandleWith(base, h.Reports.FGV, handler.NewRequest[handler.FGVRequest], reports))
	auth.GET("/relatorios_disponiveis", handler.Handle(base, h.Catalog.Available, http.StatusOK, handler.NewRequest[handler.NoRequest]))
	auth.POST("/report/relatorio", handler.HandleWith(base, h.Catalog.Run, handler.NewRequest[handler.CatalogReportRequest], reports))

	// Invoices
	invoices := auth.Group("", m.Auth.RequireInvoicePermission)
	invoices.POST("/consultar_notas", handler.HandleWith(base, h.Invoices.Search, handler.NewRequest[handler.InvoiceSearchRequest], reports))
	invoices.GET("/baixar_pdf/:cnpj/:nf", handler.HandleWith(base, h.Invoices.Download, handler.NewRequest[handler.InvoiceRequest],
		handler.NewPageResponseHandler(view.PageDownload, "Download de Nota Fiscal", "Notas")))
	invoices.POST("/baixar_pdf_manual", h.Invoices.DownloadManual)
	invoices.GET("/download_arquivo", h.Invoices.File)
}
