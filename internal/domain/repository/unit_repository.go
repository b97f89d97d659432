package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// UnitRepository persistencia de unidades.
// Las lecturas incluyen LoadID, ClientID y datos del producto (join).
type UnitRepository interface {
	// Create devuelve domain.ErrDuplicate si el código de barras ya existe.
	Create(ctx context.Context, unit *entity.Unit) error
	CountByLoad(ctx context.Context, loadID int64) (int, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Unit, error)
	// GetByBarcodeForUpdate igual que GetByBarcode pero bloquea la fila de la unidad.
	GetByBarcodeForUpdate(ctx context.Context, barcode string) (*entity.Unit, error)
	// ListByLoad lista las unidades de la carga; itemID 0 = todos los ítems.
	ListByLoad(ctx context.Context, loadID, itemID int64) ([]*entity.Unit, error)
	// ListAvailableByClient unidades disponibles de cargas etiquetadas o almacenadas del cliente.
	ListAvailableByClient(ctx context.Context, clientID int64) ([]*entity.Unit, error)
	UpdateStatus(ctx context.Context, ids []int64, status entity.UnitStatus) error
	// CountReferencedByItem unidades del ítem de carga vinculadas a algún ítem de envío.
	CountReferencedByItem(ctx context.Context, loadItemID int64) (int, error)
}
