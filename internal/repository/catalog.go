package repository

import (
	"context"
	"database/sql"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
)

// CatalogApp is the application name the report catalog is filtered by.
const CatalogApp = "APP Comercial"

// CatalogEntry is one stored report the dashboard may run.
type CatalogEntry struct {
	NomeRelatorio string         `db:"NomeRelatorio"`
	TabelaView    string         `db:"TabelaView"`
	ColunaData    sql.NullString `db:"ColunaData"`
}

// CatalogRepository reads the stored report catalog and runs its reports.
type CatalogRepository struct {
	db *database.Database
}

func NewCatalogRepository(db *database.Database) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Entries lists the active reports of the commercial app.
func (r *CatalogRepository) Entries(ctx context.Context) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	q := database.Builder.Select("NomeRelatorio", "TabelaView", "ColunaData").
		From("APPRelatoriosDisponiveis").
		Where("Ativo = ? AND APP = ?", 1, CatalogApp)

	if err := r.db.Select(ctx, config.DatabaseSTE, &entries, q); err != nil {
		return nil, err
	}
	return entries, nil
}

// Run reads a catalog view. When dateColumn is set the rows are limited to
// [start, end]. Both identifiers must come from the catalog.
func (r *CatalogRepository) Run(ctx context.Context, view, dateColumn, start, end string) (*database.RowSet, error) {
	q := database.Builder.Select("*").From(QuoteIdent(view))
	if dateColumn != "" {
		q = q.Where(QuoteIdent(dateColumn)+" BETWEEN ? AND ?", start, end)
	}
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}

// FGV reads the FGV index view between start and end.
func (r *CatalogRepository) FGV(ctx context.Context, start, end string) (*database.RowSet, error) {
	q := database.Builder.Select("*").
		From("VW_FGV_Santelisa").
		Where("Data BETWEEN ? AND ?", start, end)
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}
