package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// ShipmentRepository persistencia de envíos e ítems.
// Una unidad tiene a lo sumo un ítem activo (envío en borrador o pendiente);
// AddItem devuelve domain.ErrAlreadyAssigned si se viola.
type ShipmentRepository interface {
	// Create devuelve domain.ErrDuplicate si el número de guía ya existe.
	Create(ctx context.Context, shipment *entity.Shipment) error
	ExistsGuide(ctx context.Context, guide string) (bool, error)
	// GetByID incluye ítems con código, producto y marca de escaneo.
	GetByID(ctx context.Context, id int64) (*entity.Shipment, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Shipment, error)
	// UpdateStatus cambia el estado y recalcula la marca active de los ítems.
	UpdateStatus(ctx context.Context, id int64, status entity.ShipmentStatus, verifiedAt *time.Time) error

	AddItem(ctx context.Context, item *entity.ShipmentItem) error
	GetItem(ctx context.Context, shipmentID, itemID int64) (*entity.ShipmentItem, error)
	DeleteItem(ctx context.Context, itemID int64) error
	FindActiveItemByUnit(ctx context.Context, unitID int64) (*entity.ShipmentItem, error)
	FindItemByBarcode(ctx context.Context, shipmentID int64, barcode string) (*entity.ShipmentItem, error)
	CountItems(ctx context.Context, shipmentID int64) (int, error)
	// RecomputeTotal fija total_value = suma de precios y lo devuelve.
	RecomputeTotal(ctx context.Context, shipmentID int64) (decimal.Decimal, error)
}

// DeliveryScanRepository registros de escaneo de entrega.
type DeliveryScanRepository interface {
	// Create devuelve false si el ítem ya tenía escaneo (sin error).
	Create(ctx context.Context, scan *entity.DeliveryScan) (bool, error)
	CountByShipment(ctx context.Context, shipmentID int64) (int, error)
}
