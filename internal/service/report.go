package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/lib/utils"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/sqlerr"
)

// Report is a titled table ready to be rendered or exported.
type Report struct {
	Title  string
	Tab    string
	Period string
	Rows   *database.RowSet
}

// Machine is a machine whose status view can be queried.
type Machine struct {
	View string
	Name string
}

// Machines maps the status route id to its view.
var Machines = map[string]Machine{
	"VW_Onduladeira01": {"VW_Onduladeira01", "Onduladeira 01"},
	"VW_Onduladeira02": {"VW_Onduladeira02", "Onduladeira 02"},
	"VW_TomasoniFlex":  {"VW_TomasoniFlex", "Tomasoni Flexo"},
	"VW_Tomasoni02":    {"VW_Tomasoni02", "Tomasoni Flexo 02"},
	"VW_TomasoniCV":    {"VW_TomasoniCV", "Tomasoni CV"},
	"VW_Sundemba":      {"VW_Sundemba", "SunDemba"},
	"VW_AMAR":          {"VW_AMAR", "Amarrado"},
	"VW_DIV":           {"VW_DIV", "Acessório"},
	"VW_GRAMP1":        {"VW_GRAMP1", "Grampeadeira"},
	"VW_DIVS":          {"VW_DIVS", "Simplex"},
}

// positionLayouts are the date formats the position forms send.
var positionLayouts = []string{utils.ISODate, "2006-01-02T15:04", "2006-01-02T15:04:05", utils.BRDate}

type ReportService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewReportService(repos *repository.Repositories) *ReportService {
	return &ReportService{repos: repos, now: time.Now}
}

func report(title, tab string, rs *database.RowSet, err error) (*Report, error) {
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return &Report{Title: title, Tab: tab, Rows: rs}, nil
}

func (s *ReportService) ExpeditionBalance(ctx context.Context) (*Report, error) {
	rs, err := s.repos.Stock.ExpeditionBalance(ctx)
	return report("Saldo Expedição - TRIMBOX", "Expedição", rs, err)
}

func (s *ReportService) ExpeditionDifference(ctx context.Context) (*Report, error) {
	rs, err := s.repos.Stock.ExpeditionDifference(ctx)
	return report("Expedição: TRIMBOX x DATASUL - Saldo", "Expedição", rs, err)
}

func (s *ReportService) ScrapDifference(ctx context.Context) (*Report, error) {
	rs, err := s.repos.Stock.ScrapDifference(ctx)
	return report("Aparas: TRIMPAPER x DATASUL - Saldo", "Aparas", rs, err)
}

func (s *ReportService) ReelDifference(ctx context.Context) (*Report, error) {
	rs, err := s.repos.Stock.ReelDifference(ctx)
	return report("Bobinas: TRIMPAPER x DATASUL - Saldo", "Bobinas", rs, err)
}

func (s *ReportService) ExpeditionDataSul(ctx context.Context) (*Report, error) {
	rs, err := s.repos.Stock.ExpeditionDataSul(ctx)
	return report("Saldo Expedição - DataSul", "Expedição", rs, err)
}

func (s *ReportService) StockBalance(ctx context.Context, item, deposito string) (*Report, error) {
	rs, err := s.repos.Stock.Balance(ctx, item, deposito)
	return report("Saldo Estoque DATASUL", "Estoque", rs, err)
}

// StockPosition regenerates and reads the stock snapshot of kind on date.
func (s *ReportService) StockPosition(ctx context.Context, kind, date string) (*Report, error) {
	p, ok := repository.Positions[kind]
	if !ok {
		return nil, errs.NewNotFoundError("Posição de estoque não encontrada.", true, nil)
	}
	if strings.TrimSpace(date) == "" {
		return nil, errs.NewBadRequestError("Data não fornecida.", true, nil, nil, nil)
	}

	at, err := parsePositionDate(date)
	if err != nil {
		return nil, errs.NewBadRequestError("Data inválida.", true, nil,
			[]errs.FieldError{{Field: "dataposicaoestoque", Error: "must be a date"}}, nil)
	}

	rs, err := s.repos.Stock.Position(ctx, kind, at)
	title := p.Title
	if kind == "acabado-hist" {
		title = fmt.Sprintf("%s ('%s')- TRIMBOX", p.Title, date)
	}
	return report(title, "Estoque", rs, err)
}

func parsePositionDate(s string) (time.Time, error) {
	var err error
	for _, layout := range positionLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, strings.TrimSpace(s), time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// MachineStatus reads the status view of a whitelisted machine.
func (s *ReportService) MachineStatus(ctx context.Context, id string) (*Report, error) {
	m, ok := Machines[id]
	if !ok {
		return nil, errs.NewNotFoundError("Máquina não encontrada.", true, nil).
			WithDetails("Máquina solicitada: " + id)
	}
	rs, err := s.repos.Stock.MachineStatus(ctx, m.View)
	return report("Status da Máquina - "+m.Name, "Status da Máquina", rs, err)
}

func (s *ReportService) Integration(ctx context.Context, f repository.IntegrationFilter) (*Report, error) {
	rs, err := s.repos.MachineLoad.Integration(ctx, f)
	return report("Carga Máquina", "CM", rs, err)
}

func (s *ReportService) SearchItems(ctx context.Context, cliente, produto, repres string) (*Report, error) {
	rs, err := s.repos.Orders.SearchItems(ctx, cliente, produto, repres)
	return report("Busca de Itens - TRIMBOX", "Itens", rs, err)
}

func (s *ReportService) ItemStatus(ctx context.Context, cliente, item, pedido string) (*Report, error) {
	rs, err := s.repos.Orders.ItemStatus(ctx, cliente, item, pedido)
	return report("Consultar Status dos Itens/Pedido - TRIMBOX", "Itens", rs, err)
}

func (s *ReportService) OrderWeight(ctx context.Context, item, pedido string) (*Report, error) {
	rs, err := s.repos.Orders.OrderWeight(ctx, item, pedido)
	return report("Peso cadastro x Peso Real (Pedido) - TRIMBOX", "Pedido", rs, err)
}

func (s *ReportService) FGV(ctx context.Context, start, end string) (*Report, error) {
	rs, err := s.repos.Catalog.FGV(ctx, start, end)
	r, err := report("FGV: Santelisa", "FGV", rs, err)
	if r != nil {
		r.Period = utils.BRRange(start, end)
	}
	return r, err
}

// SaveObservation stores the note of an order and returns when it was saved.
func (s *ReportService) SaveObservation(ctx context.Context, pedido, observacao, usuario string) (time.Time, error) {
	if usuario == "" {
		usuario = "desconhecido"
	}
	err := s.repos.Orders.SaveObservation(ctx, repository.Observation{
		Pedido:     pedido,
		Observacao: observacao,
		Usuario:    usuario,
	})
	if err != nil {
		return time.Time{}, err
	}
	return s.now(), nil
}
