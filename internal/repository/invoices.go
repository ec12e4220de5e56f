package repository

import (
	"context"
	"database/sql"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
)

const invoiceView = "[VW Baixar NF Santelisa]"

// InvoiceFilter searches issued invoices. Every field is a substring match.
type InvoiceFilter struct {
	Cliente       string
	Representante string
	NF            string
	CNPJ          string
	Inadimplente  string
	Status        string
}

type InvoiceRepository struct {
	db *database.Database
}

func NewInvoiceRepository(db *database.Database) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Search returns at most SearchLimit invoices.
func (r *InvoiceRepository) Search(ctx context.Context, f InvoiceFilter) (*database.RowSet, error) {
	q := whereLike(top(SearchLimit, invoiceView),
		like{"Cliente", f.Cliente},
		like{"Repres", f.Representante},
		like{"NF", f.NF},
		like{"[CNPJ/CPF]", f.CNPJ},
		like{"Inadimplente", f.Inadimplente},
		like{"StatusNota", f.Status},
	)
	return r.db.QueryBuilder(ctx, config.DatabaseDTW, q)
}

// Client returns the customer name of an invoice, or "" when unknown.
func (r *InvoiceRepository) Client(ctx context.Context, cnpj, nf string) (string, error) {
	var rows []struct {
		Cliente sql.NullString `db:"Cliente"`
	}
	q := database.Builder.Select("TOP 1 Cliente").
		From(invoiceView).
		Where("[CNPJ/CPF] = ? AND NF = ?", cnpj, nf)

	if err := r.db.Select(ctx, config.DatabaseDTW, &rows, q); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Cliente.String, nil
}
