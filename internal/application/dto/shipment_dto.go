package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentItemRequest unidad a agregar al envío.
type ShipmentItemRequest struct {
	Barcode   string          `json:"barcode" validate:"required,max=64"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
}

// CreateShipmentRequest entrada para crear un envío; Items es opcional.
type CreateShipmentRequest struct {
	ClientID int64                 `json:"client_id" validate:"required,gt=0"`
	Driver   string                `json:"driver" validate:"omitempty,max=100"`
	Plate    string                `json:"plate" validate:"omitempty,max=10"`
	Origin   string                `json:"origin" validate:"omitempty,max=100"`
	Items    []ShipmentItemRequest `json:"items" validate:"omitempty,dive"`
}

// AddItemsRequest lote de unidades para un envío existente.
type AddItemsRequest struct {
	Items []ShipmentItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ShipmentResponse salida de un envío.
type ShipmentResponse struct {
	ID            int64                  `json:"id"`
	GuideNumber   string                 `json:"guide_number"`
	ClientID      int64                  `json:"client_id"`
	Driver        string                 `json:"driver"`
	Plate         string                 `json:"plate"`
	Origin        string                 `json:"origin"`
	TotalValue    decimal.Decimal        `json:"total_value"`
	Status        string                 `json:"status"`
	VerifiedAt    *time.Time             `json:"verified_at,omitempty"`
	IntakeBatchID string                 `json:"intake_batch_id,omitempty"`
	Items         []ShipmentItemResponse `json:"items"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ShipmentItemResponse salida de un ítem de envío.
type ShipmentItemResponse struct {
	ID          int64           `json:"id"`
	UnitID      int64           `json:"unit_id"`
	Barcode     string          `json:"barcode"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Scanned     bool            `json:"scanned"`
}
