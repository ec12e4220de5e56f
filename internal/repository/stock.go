package repository

import (
	"context"
	"time"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
	"github.com/pkg/errors"
)

// PositionTimeLayout is how the position procedures expect their date.
const PositionTimeLayout = "2006-01-02 15:04:05"

// ErrUnknownPosition is returned for a stock position kind that does not exist.
var ErrUnknownPosition = errors.New("unknown stock position")

// Position is a stock snapshot: a procedure that materialises the stock on a
// date and the view that reads it back.
type Position struct {
	Procedure string
	View      string
	OrderBy   string
	Title     string
}

// Positions maps the route suffix to its snapshot.
var Positions = map[string]Position{
	"bobina": {
		Procedure: "dbo.ps_RelatBobinasEstoqueDataQualquer",
		View:      "dbo.vw_RelBobsEmEstoqueDataQualquerAPP",
		Title:     "Posição de Estoque Bobina - TRIMPAPER",
	},
	"aparas": {
		Procedure: "dbo.ps_RelatAparasEstoqueDataQualquer",
		View:      "dbo.VW_RelAparasEstoqueNaData",
		Title:     "Posição de Estoque Aparas - TRIMPAPER",
	},
	"acabado": {
		Procedure: "dbo.ps_RelatExpedicaoEstoqueDataQualquer",
		View:      "dbo.VW_RelExpedicaoEstoqueNaData",
		Title:     "Posição de Estoque Expedição - TRIMBOX",
	},
	"acabado-hist": {
		Procedure: "dbo.ps_RelatExpedicaoEstoqueDataQualquer",
		View:      "dbo.vw_ComparativoEstoqueAcabado",
		OrderBy:   "Status, OP",
		Title:     "Comparativo Estoque Expedição",
	},
}

const expeditionDataSulQuery = `
SELECT
	s.ItemComDescricao AS Item,
	s.UnidadeMedida AS Unid,
	ROUND(CONVERT(FLOAT, ISNULL(s.QuantidadeAtual, 0)), 2) AS [Qtd],
	ROUND(ISNULL(CONVERT(FLOAT, p.PesoLiq * s.QuantidadeAtual), 0), 2) AS Peso,
	s.Deposito,
	s.descFamiliaComercial AS Familia,
	s.Situacao
FROM [VW Saldo Estoque] s
LEFT JOIN TRIMBOX.DATASULSTE.dbo.vw_PesoDatasul p ON s.Item = p.Item
WHERE s.Empresa IN (7)
	AND s.Estabelecimento IN ('P02')
	AND s.Deposito IN ('EXP')
	AND s.Situacao IN ('Ativo')
	AND s.QuantidadeAtual > 0`

// StockRepository reads balance and stock position views.
type StockRepository struct {
	db *database.Database
}

func NewStockRepository(db *database.Database) *StockRepository {
	return &StockRepository{db: db}
}

// ExpeditionBalance is the TRIMBOX expedition balance.
func (r *StockRepository) ExpeditionBalance(ctx context.Context) (*database.RowSet, error) {
	q := database.Builder.Select("*").From("vw_ConsultaSaldoExpAPP")
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}

// ExpeditionDifference compares TRIMBOX and DataSul expedition balances.
func (r *StockRepository) ExpeditionDifference(ctx context.Context) (*database.RowSet, error) {
	q := database.Builder.Select("*").From("VW_SaldoTRIM_DataSul").OrderBy("StatusQtd")
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}

// ScrapDifference compares TRIMPAPER and DataSul scrap balances.
func (r *StockRepository) ScrapDifference(ctx context.Context) (*database.RowSet, error) {
	q := database.Builder.Select("*").From("VW_ConsultaAparasAPP")
	return r.db.QueryBuilder(ctx, config.DatabaseDTW, q)
}

// ReelDifference compares TRIMPAPER and DataSul reel balances.
func (r *StockRepository) ReelDifference(ctx context.Context) (*database.RowSet, error) {
	q := database.Builder.Select("*").From("VW_ConsultaBobinaAPP")
	return r.db.QueryBuilder(ctx, config.DatabaseDTW, q)
}

// ExpeditionDataSul is the DataSul expedition balance with net weight.
func (r *StockRepository) ExpeditionDataSul(ctx context.Context) (*database.RowSet, error) {
	return r.db.Query(ctx, config.DatabaseDTW, expeditionDataSulQuery)
}

// Balance searches the DataSul stock balance by item and warehouse.
func (r *StockRepository) Balance(ctx context.Context, item, deposito string) (*database.RowSet, error) {
	q := whereLike(database.Builder.Select("*").From("VW_ConsultaSaldoAPP"),
		like{"Item", item},
		like{"Deposito", deposito},
	)
	return r.db.QueryBuilder(ctx, config.DatabaseDTW, q)
}

// Position regenerates the snapshot for at and reads it back.
func (r *StockRepository) Position(ctx context.Context, kind string, at time.Time) (*database.RowSet, error) {
	p, ok := Positions[kind]
	if !ok {
		return nil, errors.Wrap(ErrUnknownPosition, kind)
	}

	if err := r.db.Exec(ctx, config.DatabaseSTE, "EXEC "+p.Procedure+" @p1", at.Format(PositionTimeLayout)); err != nil {
		return nil, err
	}

	q := database.Builder.Select("*").From(p.View)
	if p.OrderBy != "" {
		q = q.OrderBy(p.OrderBy)
	}
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}

// MachineStatus reads one machine status view. view must come from a fixed
// list; it is quoted but not validated here.
func (r *StockRepository) MachineStatus(ctx context.Context, view string) (*database.RowSet, error) {
	q := database.Builder.Select("*").From(QuoteIdent(view))
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}
