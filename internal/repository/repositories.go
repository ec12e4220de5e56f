package repository

import (
	"strconv"

	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Stock       *StockRepository
	MachineLoad *MachineLoadRepository
	Panels      *PanelRepository
	Orders      *OrderRepository
	Invoices    *InvoiceRepository
	Catalog     *CatalogRepository
}

// NewRepositories builds every repository on the server's database pools.
func NewRepositories(s *server.Server) *Repositories {
	return New(s.DB)
}

func New(db *database.Database) *Repositories {
	return &Repositories{
		Stock:       NewStockRepository(db),
		MachineLoad: NewMachineLoadRepository(db),
		Panels:      NewPanelRepository(db),
		Orders:      NewOrderRepository(db),
		Invoices:    NewInvoiceRepository(db),
		Catalog:     NewCatalogRepository(db),
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
