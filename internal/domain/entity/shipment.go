package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentStatus estado de un envío.
type ShipmentStatus string

const (
	ShipmentDraft     ShipmentStatus = "borrador"
	ShipmentPending   ShipmentStatus = "pendiente"
	ShipmentInTransit ShipmentStatus = "en_transito"
	ShipmentDelivered ShipmentStatus = "entregado"
	ShipmentCancelled ShipmentStatus = "cancelado"
)

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentDraft:     {ShipmentPending, ShipmentCancelled},
	ShipmentPending:   {ShipmentDraft, ShipmentInTransit, ShipmentDelivered, ShipmentCancelled},
	ShipmentInTransit: {ShipmentDelivered, ShipmentCancelled},
	ShipmentDelivered: nil,
	ShipmentCancelled: nil,
}

func (s ShipmentStatus) IsValid() bool {
	_, ok := shipmentTransitions[s]
	return ok
}

func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, n := range shipmentTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// IsActive un envío activo retiene la reserva de sus unidades (una sola por unidad).
func (s ShipmentStatus) IsActive() bool {
	return s == ShipmentDraft || s == ShipmentPending
}

// AcceptsItems solo borrador o pendiente admiten agregar o quitar ítems.
func (s ShipmentStatus) AcceptsItems() bool { return s.IsActive() }

// CanScan la verificación de entrega solo corre en pendiente o en tránsito.
func (s ShipmentStatus) CanScan() bool {
	return s == ShipmentPending || s == ShipmentInTransit
}

// IsTerminal entregado y cancelado no cambian más.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentDelivered || s == ShipmentCancelled
}

// Shipment envío de salida hacia un cliente.
type Shipment struct {
	ID            int64
	GuideNumber   string // único
	ClientID      int64
	Driver        string
	Plate         string
	Origin        string
	TotalValue    decimal.Decimal
	Status        ShipmentStatus
	VerifiedAt    *time.Time // nil hasta completar la verificación
	IntakeBatchID string     // uuid del lote de ingreso masivo; vacío si no aplica
	CreatedBy     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []*ShipmentItem
}

// ShipmentItem vínculo envío-unidad con precio unitario.
type ShipmentItem struct {
	ID         int64
	ShipmentID int64
	UnitID     int64
	UnitPrice  decimal.Decimal
	Active     bool // true mientras el envío está en borrador o pendiente
	CreatedAt  time.Time

	// Lectura.
	Barcode     string
	ProductName string
	Scanned     bool
}

// DeliveryScan registro de escaneo de un ítem al entregar.
type DeliveryScan struct {
	ID         int64
	ShipmentID int64
	ItemID     int64
	ScannedAt  time.Time
	ScannedBy  int64
}

// SumPrices total de un conjunto de ítems.
func SumPrices(items []*ShipmentItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice)
	}
	return total
}
