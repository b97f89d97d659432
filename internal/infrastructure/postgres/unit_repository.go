package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.UnitRepository = (*UnitRepo)(nil)

// UnitRepo unidades con los datos de carga y producto. Pasar pool o tx (Querier).
type UnitRepo struct {
	q Querier
}

// NewUnitRepository construye el adaptador.
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

const unitSelect = `
	SELECT u.id, u.load_item_id, u.barcode, u.status, u.created_at, u.updated_at,
	       li.load_id, l.client_id, li.product_id, p.sku, p.name, l.remision
	FROM units u
	JOIN load_items li ON li.id = u.load_item_id
	JOIN loads l ON l.id = li.load_id
	JOIN products p ON p.id = li.product_id`

// Create ON CONFLICT evita abortar la transacción por un código repetido; el llamador reintenta.
func (r *UnitRepo) Create(ctx context.Context, u *entity.Unit) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO units (load_item_id, barcode, status, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()), COALESCE($5, NOW()))
		ON CONFLICT (barcode) DO NOTHING
		RETURNING id, created_at, updated_at`,
		u.LoadItemID, u.Barcode, string(u.Status), nullTime(u.CreatedAt), nullTime(u.UpdatedAt),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: código %s", domain.ErrDuplicate, u.Barcode)
		}
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

func (r *UnitRepo) CountByLoad(ctx context.Context, loadID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM units u
		JOIN load_items li ON li.id = u.load_item_id
		WHERE li.load_id = $1`, loadID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count units: %w", err)
	}
	return n, nil
}

func (r *UnitRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Unit, error) {
	return r.one(ctx, unitSelect+` WHERE u.barcode = $1`, barcode)
}

// GetByBarcodeForUpdate bloquea solo la fila de la unidad.
func (r *UnitRepo) GetByBarcodeForUpdate(ctx context.Context, barcode string) (*entity.Unit, error) {
	return r.one(ctx, unitSelect+` WHERE u.barcode = $1 FOR UPDATE OF u`, barcode)
}

func (r *UnitRepo) ListByLoad(ctx context.Context, loadID, itemID int64) ([]*entity.Unit, error) {
	return r.list(ctx, unitSelect+`
		WHERE li.load_id = $1 AND ($2::bigint = 0 OR u.load_item_id = $2::bigint)
		ORDER BY u.id`, loadID, itemID)
}

func (r *UnitRepo) ListAvailableByClient(ctx context.Context, clientID int64) ([]*entity.Unit, error) {
	return r.list(ctx, unitSelect+`
		WHERE l.client_id = $1
		  AND u.status = 'disponible'
		  AND l.status IN ('etiquetada', 'almacenada')
		  AND NOT EXISTS (SELECT 1 FROM shipment_items si WHERE si.unit_id = u.id AND si.active)
		ORDER BY l.id, u.id`, clientID)
}

func (r *UnitRepo) UpdateStatus(ctx context.Context, ids []int64, status entity.UnitStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`UPDATE units SET status = $2, updated_at = NOW() WHERE id = ANY($1)`, ids, string(status))
	if err != nil {
		return fmt.Errorf("update unit status: %w", err)
	}
	return nil
}

func (r *UnitRepo) CountReferencedByItem(ctx context.Context, loadItemID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(DISTINCT u.id) FROM units u
		JOIN shipment_items si ON si.unit_id = u.id
		WHERE u.load_item_id = $1`, loadItemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count referenced units: %w", err)
	}
	return n, nil
}

func (r *UnitRepo) one(ctx context.Context, query string, args ...any) (*entity.Unit, error) {
	units, err := r.list(ctx, query, args...)
	if err != nil || len(units) == 0 {
		return nil, err
	}
	return units[0], nil
}

func (r *UnitRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Unit, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var out []*entity.Unit
	for rows.Next() {
		var (
			u      entity.Unit
			status string
		)
		if err := rows.Scan(&u.ID, &u.LoadItemID, &u.Barcode, &status, &u.CreatedAt, &u.UpdatedAt,
			&u.LoadID, &u.ClientID, &u.ProductID, &u.ProductSKU, &u.ProductName, &u.Remision); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.Status = entity.UnitStatus(status)
		if !u.Status.IsValid() {
			return nil, fmt.Errorf("scan unit %s: estado %q desconocido", u.Barcode, status)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
