package handler

import (
	"net/http"
	"strings"

	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/middleware"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
)

// ReportHandler serves the tabular balance, position and order reports.
type ReportHandler struct {
	Handler
	reports *service.ReportService
}

func NewReportHandler(s *server.Server, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{
		Handler: NewHandler(s),
		reports: reports,
	}
}

func reportPage(r *service.Report, form *view.Form) *ReportPage {
	return &ReportPage{Report: r, Form: form}
}

func (h *ReportHandler) ExpeditionBalance(c echo.Context, _ *NoRequest) (*ReportPage, error) {
	r, err := h.reports.ExpeditionBalance(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) ExpeditionDifference(c echo.Context, _ *NoRequest) (*ReportPage, error) {
	r, err := h.reports.ExpeditionDifference(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) ScrapDifference(c echo.Context, _ *NoRequest) (*ReportPage, error) {
	r, err := h.reports.ScrapDifference(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) ReelDifference(c echo.Context, _ *NoRequest) (*ReportPage, error) {
	r, err := h.reports.ReelDifference(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) ExpeditionDataSul(c echo.Context, _ *NoRequest) (*ReportPage, error) {
	r, err := h.reports.ExpeditionDataSul(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

// StockBalance lists the DataSul balance, optionally filtered by item and
// warehouse.
func (h *ReportHandler) StockBalance(c echo.Context, req *StockBalanceRequest) (*ReportPage, error) {
	r, err := h.reports.StockBalance(c.Request().Context(), req.Item, req.Deposito)
	if err != nil {
		return nil, err
	}
	return reportPage(r, &view.Form{
		Action: c.Request().URL.Path,
		Fields: []view.Field{
			{Name: "item", Label: "Item", Type: "text", Value: req.Item},
			{Name: "deposito", Label: "Depósito", Type: "text", Value: req.Deposito},
		},
	}), nil
}

// Position returns the handler of one stock snapshot kind. Opening the page
// without a date shows only the date form.
func (h *ReportHandler) Position(kind string) HandlerFunc[*PositionRequest, *ReportPage] {
	return func(c echo.Context, req *PositionRequest) (*ReportPage, error) {
		form := &view.Form{
			Action: c.Request().URL.Path,
			Fields: []view.Field{
				{Name: "dataPosicaoEstoque", Label: "Data", Type: "date", Value: req.Data},
			},
		}

		if c.Request().Method == http.MethodGet && strings.TrimSpace(req.Data) == "" {
			return reportPage(&service.Report{
				Title: repository.Positions[kind].Title,
				Tab:   "Estoque",
				Rows:  &database.RowSet{Columns: []string{}, Rows: [][]any{}},
			}, form), nil
		}

		r, err := h.reports.StockPosition(c.Request().Context(), kind, req.Data)
		if err != nil {
			return nil, err
		}
		return reportPage(r, form), nil
	}
}

func (h *ReportHandler) MachineStatus(c echo.Context, req *MachineStatusRequest) (*ReportPage, error) {
	r, err := h.reports.MachineStatus(c.Request().Context(), req.MaquinaID)
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) Integration(c echo.Context, req *IntegrationRequest) (*ReportPage, error) {
	r, err := h.reports.Integration(c.Request().Context(), repository.IntegrationFilter{
		Start:         req.StartDate,
		End:           req.EndDate,
		Cliente:       req.Cliente,
		Produto:       req.Produto,
		Representante: req.Representante,
		Pedido:        req.Pedido,
		Agendamento:   req.Agendamento,
		Triangular:    req.Triangular,
		Status:        req.Status,
	})
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) SearchItems(c echo.Context, req *ItemSearchRequest) (*ReportPage, error) {
	r, err := h.reports.SearchItems(c.Request().Context(), req.Cliente, req.Produto, req.Repres)
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) ItemStatus(c echo.Context, req *ItemStatusRequest) (*ReportPage, error) {
	r, err := h.reports.ItemStatus(c.Request().Context(), req.Cliente, req.Item, req.Pedido)
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) OrderWeight(c echo.Context, req *OrderWeightRequest) (*ReportPage, error) {
	r, err := h.reports.OrderWeight(c.Request().Context(), req.Item, req.Pedido)
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

func (h *ReportHandler) FGV(c echo.Context, req *FGVRequest) (*ReportPage, error) {
	r, err := h.reports.FGV(c.Request().Context(), req.DataInicio, req.DataFim)
	if err != nil {
		return nil, err
	}
	return reportPage(r, nil), nil
}

// ObservationResponse is the reply of the observation endpoint.
type ObservationResponse struct {
	Status        string `json:"status"`
	Usuario       string `json:"usuario,omitempty"`
	DataAlteracao string `json:"data_alteracao,omitempty"`
	Mensagem      string `json:"mensagem,omitempty"`
}

// SaveObservation stores the commercial note of an order. It answers in its
// own {status, mensagem} shape, which the order pages read.
func (h *ReportHandler) SaveObservation(c echo.Context) error {
	logger := middleware.GetLogger(c)

	req := new(ObservationRequest)
	if err := c.Bind(req); err != nil || !req.Complete() {
		return c.JSON(http.StatusBadRequest, ObservationResponse{Status: "erro", Mensagem: "Dados incompletos."})
	}

	usuario := middleware.GetUser(c)
	at, err := h.reports.SaveObservation(c.Request().Context(), req.Pedido, req.Observacao, usuario)
	if err != nil {
		logger.Error().Err(err).Str("pedido", req.Pedido).Msg("failed to save observation")
		return c.JSON(http.StatusInternalServerError, ObservationResponse{
			Status:   "erro",
			Mensagem: "Erro interno ao salvar observação.",
		})
	}

	if usuario == "" {
		usuario = "desconhecido"
	}
	return c.JSON(http.StatusOK, ObservationResponse{
		Status:        "ok",
		Usuario:       usuario,
		DataAlteracao: view.FormatDateTime(at),
	})
}
