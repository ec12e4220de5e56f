package service

import (
	"context"
	"sort"
	"strings"

	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/sqlerr"
)

// ChartFilters echo the chart form back to the page. Field names are read
// by the page script.
type ChartFilters struct {
	StartDate string
	EndDate   string
	TipoData  string
	Filtro    string
	Entrega   string
	Familia   string
	Ativo     string
	Atraso    string
}

func (f ChartFilters) load() repository.LoadFilters {
	return repository.LoadFilters{
		Ativo:   f.Ativo,
		Filtro:  f.Filtro,
		Entrega: f.Entrega,
		Familia: f.Familia,
		Atraso:  f.Atraso,
	}
}

// ChartPoint is one bar of a machine series.
type ChartPoint struct {
	Date     string  `json:"Dt_Entrega"`
	Weight   float64 `json:"Peso_Liq"`
	Capacity float64 `json:"Capacidade"`
}

// Chart is the data of the machine load page.
type Chart struct {
	Series      map[string][]ChartPoint
	Maintenance map[string]float64
	Filters     ChartFilters
	Machines    []string
}

type MachineLoadService struct {
	repos *repository.Repositories
}

func NewMachineLoadService(repos *repository.Repositories) *MachineLoadService {
	return &MachineLoadService{repos: repos}
}

// Chart groups the load per machine and marks days with maintenance that was
// scheduled but not performed. An empty result is a 404.
func (s *MachineLoadService) Chart(ctx context.Context, f ChartFilters) (*Chart, error) {
	dateColumn := repository.DateDelivery
	if f.TipoData == "comercial" {
		dateColumn = repository.DateCommercial
	}

	rs, err := s.repos.MachineLoad.Chart(ctx, repository.ChartFilter{
		Start:       f.StartDate,
		End:         f.EndDate,
		DateColumn:  dateColumn,
		LoadFilters: f.load(),
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	if rs.Empty() {
		return nil, errs.NewNotFoundError("Nenhum dado encontrado para os filtros selecionados.", true, nil)
	}

	maintenance, err := s.repos.MachineLoad.UnperformedMaintenance(ctx)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	chart := &Chart{
		Series:      groupByMachine(rs),
		Maintenance: maintenanceIndex(maintenance),
		Filters:     f,
	}
	chart.Machines = machineOrder(chart.Series)
	return chart, nil
}

func groupByMachine(rs *database.RowSet) map[string][]ChartPoint {
	series := make(map[string][]ChartPoint)
	for i := range rs.Rows {
		machine := strings.TrimSpace(toString(rs.Value(i, "Maquina")))
		series[machine] = append(series[machine], ChartPoint{
			Date:     toString(rs.Value(i, "Dt_Entrega")),
			Weight:   number(rs, i, "Peso_Liq"),
			Capacity: number(rs, i, "Capacidade"),
		})
	}
	return series
}

// maintenanceIndex keys the maintenance minutes by "yyyy-mm-dd|machine".
func maintenanceIndex(rs *database.RowSet) map[string]float64 {
	index := make(map[string]float64, rs.Len())
	for i := range rs.Rows {
		key := toString(rs.Value(i, "Dt_Entrega")) + "|" + toString(rs.Value(i, "Maquina"))
		index[key] += number(rs, i, "Tempo")
	}
	return index
}

// machineOrder lists the machines present in series, known machines first.
func machineOrder(series map[string][]ChartPoint) []string {
	seen := make(map[string]bool, len(series))
	out := make([]string, 0, len(series))
	for _, m := range repository.MachineOrder {
		if _, ok := series[m]; ok {
			out = append(out, m)
			seen[m] = true
		}
	}

	var rest []string
	for m := range series {
		if !seen[m] {
			rest = append(rest, m)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// MaintenanceDetails lists the maintenance of a machine on a day.
func (s *MachineLoadService) MaintenanceDetails(ctx context.Context, date, machine string) ([]database.Record, error) {
	if date == "" || machine == "" {
		return nil, errs.NewBadRequestError("Data e máquina são obrigatórias.", true, nil, nil, nil)
	}
	rs, err := s.repos.MachineLoad.MaintenanceDetails(ctx, date, machine)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return rs.Records(), nil
}

// OrderDetails lists the orders behind one chart bar.
func (s *MachineLoadService) OrderDetails(ctx context.Context, date, machine string, f ChartFilters) ([]database.Record, error) {
	if date == "" {
		return nil, errs.NewBadRequestError("Data é obrigatória.", true, nil, nil, nil)
	}
	rs, err := s.repos.MachineLoad.OrderDetails(ctx, date, machine, f.load())
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return rs.Records(), nil
}
