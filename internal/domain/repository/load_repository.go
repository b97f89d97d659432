package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// LoadRepository persistencia de cargas y sus ítems.
// Las lecturas devuelven nil, nil si no existe; los ítems traen UnitCount y datos del producto.
type LoadRepository interface {
	Create(ctx context.Context, load *entity.Load) error
	GetByID(ctx context.Context, id int64) (*entity.Load, error)
	// GetForUpdate bloquea la fila de la carga (SELECT FOR UPDATE) y devuelve sus ítems.
	GetForUpdate(ctx context.Context, id int64) (*entity.Load, error)
	UpdateStatus(ctx context.Context, id int64, status entity.LoadStatus) error

	CreateItem(ctx context.Context, item *entity.LoadItem) error
	GetItem(ctx context.Context, itemID int64) (*entity.LoadItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	// DeleteItem elimina el ítem y sus unidades (cascada).
	DeleteItem(ctx context.Context, itemID int64) error
}
