package repository

import (
	"context"
	"strings"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
)

// Date columns the machine load chart can group by.
const (
	DateCommercial = "Data_Comercia"
	DateDelivery   = "Dt_Entrega"
)

// Sentinel filter values that mean "do not filter".
const (
	AllStatuses  = "Implantado"
	AllDelivery  = "CIF + FOB"
	AllFamilies  = "Todas"
	AllDelays    = "Todas"
	Corrugator   = "Onduladeira"
	corrugatorDB = "OND"
)

// LoadFilters are the optional filters shared by the chart and its drill-down.
type LoadFilters struct {
	Ativo   string
	Filtro  string
	Entrega string
	Familia string
	Atraso  string
}

// conditions returns the SQL fragment and its arguments. prefix qualifies the
// columns ("c." for the details view).
func (f LoadFilters) conditions(prefix, familyColumn string) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	add := func(column, value string) {
		sb.WriteString(" AND " + prefix + column + " = ?")
		args = append(args, value)
	}

	if f.Ativo != "" {
		add("Ativo", f.Ativo)
	}
	if f.Filtro != "" && f.Filtro != AllStatuses {
		add("Filtro", f.Filtro)
	}
	if f.Entrega != "" && f.Entrega != AllDelivery {
		add("CIF_FOB", f.Entrega)
	}
	if f.Familia != "" && f.Familia != AllFamilies {
		add(familyColumn, f.Familia)
	}
	if f.Atraso != "" && f.Atraso != AllDelays {
		add("Atraso", f.Atraso)
	}
	return sb.String(), args
}

// ChartFilter selects the machine load chart data.
type ChartFilter struct {
	Start      string
	End        string
	DateColumn string
	LoadFilters
}

// MachineOrder is the display order of the chart series.
var MachineOrder = []string{
	"Onduladeira", "TOMASONI 02", "TOMASONI", "SUNDEMBA", "TOM CV",
	"AMAR", "DIV", "DIV.S.", "MP 1",
}

const chartAggregate = `
WITH AggregatedData AS (
	SELECT
		CONVERT(varchar, {{date}}, 23) AS Dt_Entrega,
		Maquina1 AS Maquina,
		SUM(ISNULL(Peso_Liq, 0)) AS Peso_Liq,
		AVG(ISNULL(CapacidadeConv, 0)) AS CapacidadeConv,
		AVG(ISNULL(CapacidadeOnd, 0)) AS CapacidadeOnd
	FROM DATASULSTE.dbo.[VW Carga Maquina APP Grafico]
	WHERE {{date}} BETWEEN ? AND ?
		AND Maquina1 IS NOT NULL
		AND Maquina1 NOT IN ('BALANCAREFGO', 'BARBAN', 'COLMAN', 'COLADEIRA', 'CV', 'Onduladeira', 'OUTROS', 'RISCADOR')`

const chartTail = `
	GROUP BY CONVERT(varchar, {{date}}, 23), Maquina1
),
Onduladeira AS (
	SELECT Dt_Entrega, 'Onduladeira' AS Maquina, SUM(Peso_Liq) AS Peso_Liq, AVG(CapacidadeOnd) AS Capacidade
	FROM AggregatedData
	WHERE CapacidadeOnd > 0
	GROUP BY Dt_Entrega
),
Conversao AS (
	SELECT Dt_Entrega, Maquina, Peso_Liq, CapacidadeConv AS Capacidade
	FROM AggregatedData
),
FinalData AS (
	SELECT * FROM Onduladeira
	UNION ALL
	SELECT * FROM Conversao
)
SELECT * FROM FinalData
ORDER BY
	CASE Maquina
		WHEN 'Onduladeira' THEN 1
		WHEN 'TOMASONI 02' THEN 2
		WHEN 'TOMASONI' THEN 3
		WHEN 'SUNDEMBA' THEN 4
		WHEN 'TOM CV' THEN 5
		WHEN 'AMAR' THEN 6
		WHEN 'DIV' THEN 7
		WHEN 'DIV.S.' THEN 8
		WHEN 'MP 1' THEN 9
		ELSE 10
	END, Dt_Entrega`

const unperformedMaintenanceQuery = `
SELECT
	CONVERT(VARCHAR(10), Data, 120) AS Dt_Entrega,
	CASE Maquina WHEN 'OND' THEN 'Onduladeira' ELSE Maquina END AS Maquina,
	SUM(Tempo) AS Tempo
FROM vw_Calendario_Manutencao
WHERE Situacao = 'Programada e não Realizada'
GROUP BY Data, Maquina`

const maintenanceDetailsQuery = `
SELECT
	CONVERT(VARCHAR(10), Data, 103) AS Data,
	Maquina,
	Maquina AS Equipamento,
	DescricaoProg AS Descricao,
	Situacao AS Tipo,
	Tempo,
	Situacao
FROM vw_Calendario_Manutencao
WHERE CONVERT(DATE, Data) = ? AND Maquina = ?`

const orderDetailsQuery = `
SELECT
	c.PedCliente,
	c.Item,
	LEFT(c.Referencia, 30) AS Referencia,
	LEFT(c.Cliente, 30) AS Cliente,
	c.CIF_FOB,
	c.Qtd_Pedido,
	CONVERT(FLOAT, c.Peso_Liq) AS Peso_Liq,
	CONVERT(VARCHAR, [DT_Implantação], 103) AS DT_Implantacao,
	c.[Entrege_x _Geração] AS Entrege_x_Geracao,
	c.Maquina1,
	c.Maquina2
FROM DATASULSTE.dbo.[VW Carga Maquina APP Detalhes] c
WHERE CONVERT(DATE, c.Dt_Entrega) = ?`

// MachineLoadRepository reads the machine load ("carga máquina") views.
type MachineLoadRepository struct {
	db *database.Database
}

func NewMachineLoadRepository(db *database.Database) *MachineLoadRepository {
	return &MachineLoadRepository{db: db}
}

// Chart returns Dt_Entrega, Maquina, Peso_Liq, Capacidade per day and machine.
// The corrugator rows aggregate every machine with corrugator capacity.
func (r *MachineLoadRepository) Chart(ctx context.Context, f ChartFilter) (*database.RowSet, error) {
	dateColumn := DateDelivery
	if f.DateColumn == DateCommercial {
		dateColumn = DateCommercial
	}

	cond, condArgs := f.conditions("", "Familia_trim")
	query := strings.ReplaceAll(chartAggregate+cond+chartTail, "{{date}}", dateColumn)
	args := append([]any{f.Start, f.End}, condArgs...)

	query, err := rawAtP(query)
	if err != nil {
		return nil, err
	}
	return r.db.Query(ctx, config.DatabaseSTE, query, args...)
}

// UnperformedMaintenance returns scheduled maintenance that did not happen,
// as Dt_Entrega (yyyy-mm-dd), Maquina, Tempo.
func (r *MachineLoadRepository) UnperformedMaintenance(ctx context.Context) (*database.RowSet, error) {
	return r.db.Query(ctx, config.DatabaseSTE, unperformedMaintenanceQuery)
}

// MaintenanceDetails lists the maintenance of machine on date.
func (r *MachineLoadRepository) MaintenanceDetails(ctx context.Context, date, machine string) (*database.RowSet, error) {
	if machine == Corrugator {
		machine = corrugatorDB
	}
	query, err := rawAtP(maintenanceDetailsQuery)
	if err != nil {
		return nil, err
	}
	return r.db.Query(ctx, config.DatabaseSTE, query, date, machine)
}

// OrderDetails lists the order lines behind one chart bar. The corrugator bar
// covers every machine.
func (r *MachineLoadRepository) OrderDetails(ctx context.Context, date, machine string, f LoadFilters) (*database.RowSet, error) {
	query := orderDetailsQuery
	args := []any{date}

	if machine != "" && machine != Corrugator {
		query += " AND c.Maquina1 = ?"
		args = append(args, machine)
	}
	cond, condArgs := f.conditions("c.", "Familia_Trim")
	query += cond + " ORDER BY c.PedCliente, c.Item"
	args = append(args, condArgs...)

	query, err := rawAtP(query)
	if err != nil {
		return nil, err
	}
	return r.db.Query(ctx, config.DatabaseSTE, query, args...)
}

// IntegrationFilter selects rows of the machine load integration view.
type IntegrationFilter struct {
	Start         string
	End           string
	Cliente       string
	Produto       string
	Representante string
	Pedido        string
	Agendamento   string
	Triangular    string
	Status        string
}

// Integration searches the machine load integration view by delivery date.
func (r *MachineLoadRepository) Integration(ctx context.Context, f IntegrationFilter) (*database.RowSet, error) {
	q := database.Builder.Select("*").
		From("DATASULSTE.dbo.vw_CargaMaquinaAPPIntegracao").
		Where("Entrega BETWEEN ? AND ?", f.Start, f.End)
	q = whereLike(q,
		like{"Cliente", f.Cliente},
		like{"Item", f.Produto},
		like{"Represen", f.Representante},
		like{"Pedido", f.Pedido},
		like{"Agendamento", f.Agendamento},
		like{"Triangular", f.Triangular},
		like{"[Status Pedido]", f.Status},
	)
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}
