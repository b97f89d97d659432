package memory

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/application/loads"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ loads.TxRunner = (*TxRunner)(nil)
var _ shipping.TxRunner = (*TxRunner)(nil)

// TxRunner serializa las transacciones con el lock del Store y restaura
// la foto previa si fn devuelve error.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

func (r *TxRunner) run(ctx context.Context, fn func(ss session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snapshot := r.s.data.clone()
	if err := fn(session{s: r.s, inTx: true}); err != nil {
		r.s.data = snapshot
		return err
	}
	return nil
}

// RunLoads transacción con repos de cargas, unidades y productos.
func (r *TxRunner) RunLoads(ctx context.Context, fn func(
	loadRepo repository.LoadRepository,
	unitRepo repository.UnitRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.run(ctx, func(ss session) error {
		return fn(&LoadRepo{ss: ss}, &UnitRepo{ss: ss}, &ProductRepo{ss: ss})
	})
}

// RunShipping transacción con repos de unidades, envíos, escaneos y clientes.
func (r *TxRunner) RunShipping(ctx context.Context, fn func(
	unitRepo repository.UnitRepository,
	shipmentRepo repository.ShipmentRepository,
	scanRepo repository.DeliveryScanRepository,
	clientRepo repository.ClientRepository,
) error) error {
	return r.run(ctx, func(ss session) error {
		return fn(&UnitRepo{ss: ss}, &ShipmentRepo{ss: ss}, &ScanRepo{ss: ss}, &ClientRepo{ss: ss})
	})
}
