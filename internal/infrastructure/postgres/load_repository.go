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

var _ repository.LoadRepository = (*LoadRepo)(nil)

// LoadRepo cargas e ítems. Pasar pool o tx (Querier).
type LoadRepo struct {
	q Querier
}

// NewLoadRepository construye el adaptador.
func NewLoadRepository(q Querier) *LoadRepo {
	return &LoadRepo{q: q}
}

func (r *LoadRepo) Create(ctx context.Context, l *entity.Load) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO loads (client_id, supplier_id, remision, invoice_file, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), COALESCE($8, NOW()))
		RETURNING id, created_at, updated_at`,
		l.ClientID, l.SupplierID, l.Remision, l.InvoiceFile, l.Notes, string(l.Status),
		nullTime(l.CreatedAt), nullTime(l.UpdatedAt),
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("crear carga: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert load: %w", err)
	}
	return nil
}

const loadColumns = `id, client_id, supplier_id, remision, invoice_file, notes, status, created_at, updated_at`

func (r *LoadRepo) GetByID(ctx context.Context, id int64) (*entity.Load, error) {
	return r.get(ctx, `SELECT `+loadColumns+` FROM loads WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la carga hasta el fin de la transacción.
func (r *LoadRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Load, error) {
	return r.get(ctx, `SELECT `+loadColumns+` FROM loads WHERE id = $1 FOR UPDATE`, id)
}

func (r *LoadRepo) get(ctx context.Context, query string, id int64) (*entity.Load, error) {
	var (
		l      entity.Load
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.ClientID, &l.SupplierID, &l.Remision, &l.InvoiceFile, &l.Notes, &status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get load: %w", err)
	}
	l.Status = entity.LoadStatus(status)
	if !l.Status.IsValid() {
		return nil, fmt.Errorf("get load %d: estado %q desconocido", id, status)
	}

	items, err := r.listItems(ctx, `WHERE li.load_id = $1`, id)
	if err != nil {
		return nil, err
	}
	l.Items = items
	return &l, nil
}

func (r *LoadRepo) UpdateStatus(ctx context.Context, id int64, status entity.LoadStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE loads SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update load status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("actualizar carga %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *LoadRepo) CreateItem(ctx context.Context, item *entity.LoadItem) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO load_items (load_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()))
		RETURNING id, created_at`,
		item.LoadID, item.ProductID, item.Quantity, nullTime(item.CreatedAt),
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("crear ítem: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert load item: %w", err)
	}
	return nil
}

func (r *LoadRepo) GetItem(ctx context.Context, itemID int64) (*entity.LoadItem, error) {
	items, err := r.listItems(ctx, `WHERE li.id = $1`, itemID)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *LoadRepo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	tag, err := r.q.Exec(ctx, `UPDATE load_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update load item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("actualizar ítem %d: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

// DeleteItem las unidades caen por cascada; si alguna está en un envío la FK RESTRICT lo impide.
func (r *LoadRepo) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM load_items WHERE id = $1`, itemID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUnitInUse
		}
		return fmt.Errorf("delete load item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("eliminar ítem %d: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

func (r *LoadRepo) listItems(ctx context.Context, where string, arg int64) ([]*entity.LoadItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT li.id, li.load_id, li.product_id, li.quantity, li.created_at, p.sku, p.name,
		       (SELECT COUNT(*) FROM units u WHERE u.load_item_id = li.id)
		FROM load_items li
		JOIN products p ON p.id = li.product_id
		`+where+`
		ORDER BY li.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list load items: %w", err)
	}
	defer rows.Close()

	var out []*entity.LoadItem
	for rows.Next() {
		var it entity.LoadItem
		if err := rows.Scan(&it.ID, &it.LoadID, &it.ProductID, &it.Quantity, &it.CreatedAt,
			&it.ProductSKU, &it.ProductName, &it.UnitCount); err != nil {
			return nil, fmt.Errorf("scan load item: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}
