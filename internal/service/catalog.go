package service

import (
	"context"
	"strings"
	"time"

	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/lib/utils"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/sqlerr"
)

// NoPeriod is shown when a stored report runs without a date filter.
const NoPeriod = "Sem filtro de período"

// CatalogItem is a stored report as the index page lists it.
type CatalogItem struct {
	NomeRelatorio      string `json:"NomeRelatorio"`
	TabelaView         string `json:"TabelaView"`
	ColunaData         string `json:"ColunaData"`
	DataInicioSugerida string `json:"DataInicioSugerida"`
	DataFimSugerida    string `json:"DataFimSugerida"`
}

// CatalogRequest runs one stored report.
type CatalogRequest struct {
	TipoRelatorio string
	ColunaData    string
	DataInicio    string
	DataFim       string
}

type CatalogService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewCatalogService(repos *repository.Repositories) *CatalogService {
	return &CatalogService{repos: repos, now: time.Now}
}

func cleanColumn(s string) string {
	return strings.TrimSpace(strings.NewReplacer("[", "", "]", "").Replace(s))
}

// Available lists the active stored reports with the current month as the
// suggested period.
func (s *CatalogService) Available(ctx context.Context) ([]CatalogItem, error) {
	entries, err := s.repos.Catalog.Entries(ctx)
	if err != nil {
		return nil, err
	}

	first, last := utils.MonthBounds(s.now())
	items := make([]CatalogItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, CatalogItem{
			NomeRelatorio:      e.NomeRelatorio,
			TabelaView:         e.TabelaView,
			ColunaData:         cleanColumn(e.ColunaData.String),
			DataInicioSugerida: first,
			DataFimSugerida:    last,
		})
	}
	return items, nil
}

// Run executes a stored report. Only views listed in the catalog can be read
// and only by the catalog's own date column.
func (s *CatalogService) Run(ctx context.Context, req CatalogRequest) (*Report, error) {
	if strings.TrimSpace(req.TipoRelatorio) == "" {
		return nil, errs.NewBadRequestError("O tipo de relatório é obrigatório.", true, nil, nil, nil)
	}

	entries, err := s.repos.Catalog.Entries(ctx)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	var entry *repository.CatalogEntry
	for i := range entries {
		if strings.EqualFold(entries[i].TabelaView, req.TipoRelatorio) {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return nil, errs.NewNotFoundError("Relatório não encontrado.", true, nil)
	}

	column := cleanColumn(req.ColunaData)
	filtered := column != "" && req.DataInicio != "" && req.DataFim != ""
	if filtered && !strings.EqualFold(column, cleanColumn(entry.ColunaData.String)) {
		return nil, errs.NewBadRequestError("Coluna de data inválida para o relatório.", true, nil, nil, nil)
	}

	dateColumn := ""
	if filtered {
		dateColumn = column
	}
	rs, err := s.repos.Catalog.Run(ctx, entry.TabelaView, dateColumn, req.DataInicio, req.DataFim)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	if rs.Empty() {
		return nil, errs.NewNotFoundError("Nenhum dado encontrado para o relatório selecionado.", true, nil)
	}
	if column != "" {
		rs = rs.Drop(column)
	}

	title := entry.NomeRelatorio
	if title == "" {
		title = "Relatório"
	}
	period := NoPeriod
	if column != "" && req.DataInicio != "" && req.DataFim != "" {
		period = utils.BRRange(req.DataInicio, req.DataFim)
	}

	return &Report{Title: title, Tab: "Consulta Armazenada", Period: period, Rows: rs}, nil
}
