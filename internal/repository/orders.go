package repository

import (
	"context"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
)

// Observation is a commercial note attached to an order.
type Observation struct {
	Pedido     string
	Observacao string
	Usuario    string
}

// Upsert in one statement. HOLDLOCK keeps two concurrent saves of the same
// order from both taking the insert branch.
const mergeObservation = `
MERGE ObservacoesComerciais WITH (HOLDLOCK) AS t
USING (SELECT @p1 AS Pedido) AS s
	ON t.Pedido = s.Pedido
WHEN MATCHED THEN
	UPDATE SET Observacao = @p2, UsuarioAlteracao = @p3, DataAlteracao = GETDATE()
WHEN NOT MATCHED THEN
	INSERT (Pedido, Observacao, Usuario, DataRegistro)
	VALUES (@p1, @p2, @p3, GETDATE());`

// OrderRepository reads the order and item search views.
type OrderRepository struct {
	db *database.Database
}

func NewOrderRepository(db *database.Database) *OrderRepository {
	return &OrderRepository{db: db}
}

// SearchItems is the advanced item search.
func (r *OrderRepository) SearchItems(ctx context.Context, cliente, produto, repres string) (*database.RowSet, error) {
	q := whereLike(top(SearchLimit, "vw_Busca_Avancada_APP"),
		like{"Cliente", cliente},
		like{"Produto", produto},
		like{"Repres", repres},
	)
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}

// ItemStatus is the production order status per item and order.
func (r *OrderRepository) ItemStatus(ctx context.Context, cliente, item, pedido string) (*database.RowSet, error) {
	q := whereLike(top(SearchLimit, "vw_Status_OP_Item_Pedido"),
		like{"Cliente", cliente},
		like{"Item", item},
		like{"Pedido", pedido},
	)
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}

// OrderWeight compares registered and real weight per order.
func (r *OrderRepository) OrderWeight(ctx context.Context, item, pedido string) (*database.RowSet, error) {
	q := whereLike(top(SearchLimit, "VW_ConsultaPesoPedido"),
		like{"Item", item},
		like{"Pedido", pedido},
	)
	return r.db.QueryBuilder(ctx, config.DatabaseSTE, q)
}

// SaveObservation inserts or updates the note of an order.
func (r *OrderRepository) SaveObservation(ctx context.Context, o Observation) error {
	return r.db.Exec(ctx, config.DatabaseSTE, mergeObservation, o.Pedido, o.Observacao, o.Usuario)
}
