package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var (
	_ repository.ShipmentRepository     = (*ShipmentRepo)(nil)
	_ repository.DeliveryScanRepository = (*ScanRepo)(nil)
)

// ShipmentRepo envíos e ítems. Pasar pool o tx (Querier).
type ShipmentRepo struct {
	q Querier
}

// NewShipmentRepository construye el adaptador.
func NewShipmentRepository(q Querier) *ShipmentRepo {
	return &ShipmentRepo{q: q}
}

func (r *ShipmentRepo) Create(ctx context.Context, s *entity.Shipment) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO shipments (guide_number, client_id, driver, plate, origin, total_value, status,
		                       intake_batch_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9, COALESCE($10, NOW()), COALESCE($11, NOW()))
		ON CONFLICT (guide_number) DO NOTHING
		RETURNING id, created_at, updated_at`,
		s.GuideNumber, s.ClientID, s.Driver, s.Plate, s.Origin, s.TotalValue, string(s.Status),
		s.IntakeBatchID, s.CreatedBy, nullTime(s.CreatedAt), nullTime(s.UpdatedAt),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: guía %s", domain.ErrDuplicate, s.GuideNumber)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("crear envío: cliente %d: %w", s.ClientID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepo) ExistsGuide(ctx context.Context, guide string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM shipments WHERE guide_number = $1)`, guide,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists guide: %w", err)
	}
	return exists, nil
}

const shipmentColumns = `id, guide_number, client_id, driver, plate, origin, total_value, status,
	verified_at, COALESCE(intake_batch_id::text, ''), created_by, created_at, updated_at`

func (r *ShipmentRepo) GetByID(ctx context.Context, id int64) (*entity.Shipment, error) {
	return r.get(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del envío; serializa escaneos y cambios de ítems.
func (r *ShipmentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Shipment, error) {
	return r.get(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 FOR UPDATE`, id)
}

func (r *ShipmentRepo) get(ctx context.Context, query string, id int64) (*entity.Shipment, error) {
	var (
		s      entity.Shipment
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.GuideNumber, &s.ClientID, &s.Driver, &s.Plate, &s.Origin, &s.TotalValue, &status,
		&s.VerifiedAt, &s.IntakeBatchID, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	s.Status = entity.ShipmentStatus(status)
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("get shipment %d: estado %q desconocido", id, status)
	}

	items, err := r.items(ctx, `WHERE si.shipment_id = $1 ORDER BY si.id`, id)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

// UpdateStatus además fija active de los ítems según el nuevo estado.
func (r *ShipmentRepo) UpdateStatus(ctx context.Context, id int64, status entity.ShipmentStatus, verifiedAt *time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE shipments SET status = $2, verified_at = COALESCE($3, verified_at), updated_at = NOW()
		WHERE id = $1`, id, string(status), verifiedAt)
	if err != nil {
		return fmt.Errorf("update shipment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("actualizar envío %d: %w", id, domain.ErrNotFound)
	}
	if _, err := r.q.Exec(ctx,
		`UPDATE shipment_items SET active = $2 WHERE shipment_id = $1 AND active <> $2`,
		id, status.IsActive(),
	); err != nil {
		if violatesActiveReservation(err) {
			return fmt.Errorf("%w: envío %d", domain.ErrAlreadyAssigned, id)
		}
		return fmt.Errorf("update shipment items: %w", err)
	}
	return nil
}

// AddItem ON CONFLICT cubre el par (envío, unidad) y el índice parcial de reserva activa.
func (r *ShipmentRepo) AddItem(ctx context.Context, item *entity.ShipmentItem) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO shipment_items (shipment_id, unit_id, unit_price, active, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		ON CONFLICT DO NOTHING
		RETURNING id, created_at`,
		item.ShipmentID, item.UnitID, item.UnitPrice, item.Active, nullTime(item.CreatedAt),
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: unidad %d", domain.ErrAlreadyAssigned, item.UnitID)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("agregar ítem: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert shipment item: %w", err)
	}
	return nil
}

func (r *ShipmentRepo) GetItem(ctx context.Context, shipmentID, itemID int64) (*entity.ShipmentItem, error) {
	return r.item(ctx, `WHERE si.shipment_id = $1 AND si.id = $2`, shipmentID, itemID)
}

// DeleteItem el escaneo del ítem cae por cascada.
func (r *ShipmentRepo) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM shipment_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete shipment item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("eliminar ítem %d: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

func (r *ShipmentRepo) FindActiveItemByUnit(ctx context.Context, unitID int64) (*entity.ShipmentItem, error) {
	return r.item(ctx, `WHERE si.unit_id = $1 AND si.active`, unitID)
}

func (r *ShipmentRepo) FindItemByBarcode(ctx context.Context, shipmentID int64, barcode string) (*entity.ShipmentItem, error) {
	return r.item(ctx, `WHERE si.shipment_id = $1 AND u.barcode = $2`, shipmentID, barcode)
}

func (r *ShipmentRepo) CountItems(ctx context.Context, shipmentID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM shipment_items WHERE shipment_id = $1`, shipmentID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count shipment items: %w", err)
	}
	return n, nil
}

func (r *ShipmentRepo) RecomputeTotal(ctx context.Context, shipmentID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		UPDATE shipments s
		SET total_value = COALESCE((SELECT SUM(unit_price) FROM shipment_items WHERE shipment_id = s.id), 0),
		    updated_at = NOW()
		WHERE s.id = $1
		RETURNING s.total_value`, shipmentID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("recalcular total %d: %w", shipmentID, domain.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("recompute total: %w", err)
	}
	return total, nil
}

func (r *ShipmentRepo) item(ctx context.Context, where string, args ...any) (*entity.ShipmentItem, error) {
	items, err := r.items(ctx, where+` LIMIT 1`, args...)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *ShipmentRepo) items(ctx context.Context, where string, args ...any) ([]*entity.ShipmentItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT si.id, si.shipment_id, si.unit_id, si.unit_price, si.active, si.created_at,
		       u.barcode, p.name,
		       EXISTS (SELECT 1 FROM delivery_scans ds WHERE ds.item_id = si.id)
		FROM shipment_items si
		JOIN units u ON u.id = si.unit_id
		JOIN load_items li ON li.id = u.load_item_id
		JOIN products p ON p.id = li.product_id
		`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list shipment items: %w", err)
	}
	defer rows.Close()

	var out []*entity.ShipmentItem
	for rows.Next() {
		var it entity.ShipmentItem
		if err := rows.Scan(&it.ID, &it.ShipmentID, &it.UnitID, &it.UnitPrice, &it.Active, &it.CreatedAt,
			&it.Barcode, &it.ProductName, &it.Scanned); err != nil {
			return nil, fmt.Errorf("scan shipment item: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

// ScanRepo escaneos de entrega; uno por ítem (item_id único).
type ScanRepo struct {
	q Querier
}

func NewScanRepository(q Querier) *ScanRepo {
	return &ScanRepo{q: q}
}

func (r *ScanRepo) Create(ctx context.Context, scan *entity.DeliveryScan) (bool, error) {
	err := r.q.QueryRow(ctx, `
		INSERT INTO delivery_scans (shipment_id, item_id, scanned_at, scanned_by)
		VALUES ($1, $2, COALESCE($3, NOW()), $4)
		ON CONFLICT (item_id) DO NOTHING
		RETURNING id`,
		scan.ShipmentID, scan.ItemID, nullTime(scan.ScannedAt), scan.ScannedBy,
	).Scan(&scan.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert delivery scan: %w", err)
	}
	return true, nil
}

func (r *ScanRepo) CountByShipment(ctx context.Context, shipmentID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM delivery_scans WHERE shipment_id = $1`, shipmentID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count delivery scans: %w", err)
	}
	return n, nil
}
