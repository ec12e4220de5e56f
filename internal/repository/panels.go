package repository

import (
	"context"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
)

// PanelRepository feeds the billing and production panels. Both are backed by
// procedures that rebuild a snapshot table for the requested period.
type PanelRepository struct {
	db *database.Database
}

func NewPanelRepository(db *database.Database) *PanelRepository {
	return &PanelRepository{db: db}
}

// GenerateBilling rebuilds the billing snapshot on DTW, then on STE.
func (r *PanelRepository) GenerateBilling(ctx context.Context, start, end string) error {
	for _, name := range []string{config.DatabaseDTW, config.DatabaseSTE} {
		if err := r.db.Exec(ctx, name, "EXEC sp_GerarRelatorioFaturamento @p1, @p2", start, end); err != nil {
			return err
		}
	}
	return nil
}

// BillingSnapshot returns the single row of the billing snapshot.
func (r *PanelRepository) BillingSnapshot(ctx context.Context) (*database.RowSet, error) {
	return r.db.QueryBuilder(ctx, config.DatabaseDTW, top(1, "RelatorioFaturamentoMensal"))
}

// DailyBilling is the per-day billing summary between start and end.
func (r *PanelRepository) DailyBilling(ctx context.Context, start, end string) (*database.RowSet, error) {
	q := database.Builder.Select("*").
		From("vw_ResumoFaturamentoPorDia").
		Where("Data BETWEEN ? AND ?", start, end).
		OrderBy("Data ASC")
	return r.db.QueryBuilder(ctx, config.DatabaseDTW, q)
}

// GenerateProduction rebuilds the production summary for the period.
func (r *PanelRepository) GenerateProduction(ctx context.Context, start, end string) error {
	return r.db.Exec(ctx, config.DatabaseSTE, "EXEC dbo.sp_GerarResumoProducao @p1, @p2", start, end)
}

// Production reads the production summary ordered by its sequence column.
func (r *PanelRepository) Production(ctx context.Context, start, end string) (*database.RowSet, error) {
	q := database.Builder.Select("*").
		From("RelatorioProducaoMensal").
		Where("PeriodoInicio BETWEEN ? AND ?", start, end).
		OrderBy("Seq ASC")
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}
