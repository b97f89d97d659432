package dto

import "time"

// CreateLoadRequest entrada para registrar una carga con sus ítems.
// Cada ítem identifica el producto por product_id, por sku (se crea si no existe)
// o solo por product_name (SKU derivado del nombre).
type CreateLoadRequest struct {
	ClientID          int64             `json:"client_id" validate:"required,gt=0"`
	SupplierID        int64             `json:"supplier_id" validate:"required,gt=0"`
	Remision          string            `json:"remision" validate:"required,max=50"`
	InvoiceFile       string            `json:"invoice_file" validate:"omitempty,max=255"`
	Notes             string            `json:"notes" validate:"omitempty,max=1000"`
	AutoGenerateUnits *bool             `json:"auto_generate_units"` // nil = true
	Items             []LoadItemRequest `json:"items" validate:"required,min=1,dive"`
}

// LoadItemRequest línea de la carga.
type LoadItemRequest struct {
	ProductID   int64  `json:"product_id" validate:"omitempty,gt=0"`
	SKU         string `json:"sku" validate:"omitempty,max=60"`
	ProductName string `json:"product_name" validate:"omitempty,max=200"`
	UnitMeasure string `json:"unit_measure" validate:"omitempty,max=20"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemQuantityRequest nueva cantidad de un ítem.
type UpdateItemQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// LoadResponse salida de una carga.
type LoadResponse struct {
	ID          int64              `json:"id"`
	ClientID    int64              `json:"client_id"`
	SupplierID  int64              `json:"supplier_id"`
	Remision    string             `json:"remision"`
	InvoiceFile string             `json:"invoice_file,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Status      string             `json:"status"`
	TotalUnits  int                `json:"total_units"`
	Items       []LoadItemResponse `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

// LoadItemResponse salida de un ítem de carga.
type LoadItemResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	ProductSKU  string `json:"product_sku"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitCount   int    `json:"unit_count"`
}

// MaterializeResponse resultado de generar unidades.
type MaterializeResponse struct {
	LoadID  int64  `json:"load_id"`
	Created int    `json:"created"`
	Status  string `json:"status"`
}

// UnitResponse salida de una unidad.
type UnitResponse struct {
	ID          int64  `json:"id"`
	Barcode     string `json:"barcode"`
	Status      string `json:"status"`
	LoadID      int64  `json:"load_id"`
	LoadItemID  int64  `json:"load_item_id"`
	ClientID    int64  `json:"client_id"`
	ProductSKU  string `json:"product_sku"`
	ProductName string `json:"product_name"`
}

// AvailableLoadResponse carga con sus unidades disponibles para armar envíos.
type AvailableLoadResponse struct {
	LoadID   int64          `json:"load_id"`
	Remision string         `json:"remision"`
	Units    []UnitResponse `json:"units"`
}
