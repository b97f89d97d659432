package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/logistica-api/internal/application/loads"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ loads.TxRunner = (*TxRunner)(nil)
var _ shipping.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunLoads transacción con repos de cargas, unidades y productos (materialización, ítems).
func (r *TxRunner) RunLoads(ctx context.Context, fn func(
	loadRepo repository.LoadRepository,
	unitRepo repository.UnitRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewLoadRepository(tx), NewUnitRepository(tx), NewProductRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunShipping transacción con repos de unidades, envíos, escaneos y clientes.
// Una violación del índice de reserva activa al confirmar se reporta como ErrAlreadyAssigned.
func (r *TxRunner) RunShipping(ctx context.Context, fn func(
	unitRepo repository.UnitRepository,
	shipmentRepo repository.ShipmentRepository,
	scanRepo repository.DeliveryScanRepository,
	clientRepo repository.ClientRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewUnitRepository(tx), NewShipmentRepository(tx), NewScanRepository(tx), NewClientRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if violatesActiveReservation(err) {
			return fmt.Errorf("%w: %v", domain.ErrAlreadyAssigned, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
