package dto

import "time"

// ScanRequest código leído en la entrega.
type ScanRequest struct {
	Barcode string `json:"barcode" validate:"required,max=64"`
}

// ScanResponse resultado de un escaneo.
type ScanResponse struct {
	AlreadyScanned bool    `json:"already_scanned"`
	Completed      bool    `json:"completed"`
	Progress       float64 `json:"progress"`
	Scanned        int     `json:"scanned"`
	Total          int     `json:"total"`
	Status         string  `json:"status"`
}

// VerificationStatusResponse avance de la verificación de entrega.
type VerificationStatusResponse struct {
	ShipmentID  int64      `json:"shipment_id"`
	GuideNumber string     `json:"guide_number"`
	Status      string     `json:"status"`
	Total       int        `json:"total"`
	Scanned     int        `json:"scanned"`
	Pending     int        `json:"pending"`
	Percentage  float64    `json:"percentage"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

// BulkIntakeRequest códigos escaneados sin envío previo y datos comunes del despacho.
type BulkIntakeRequest struct {
	Barcodes []string `json:"barcodes" validate:"required,min=1,dive,required,max=64"`
	Driver   string   `json:"driver" validate:"omitempty,max=100"`
	Plate    string   `json:"plate" validate:"omitempty,max=10"`
	Origin   string   `json:"origin" validate:"omitempty,max=100"`
}

// BulkIntakeResponse un envío creado por cliente.
type BulkIntakeResponse struct {
	BatchID   string               `json:"batch_id"`
	Shipments []BulkIntakeShipment `json:"shipments"`
}

// BulkIntakeShipment envío creado para un cliente.
type BulkIntakeShipment struct {
	ClientID    int64  `json:"client_id"`
	ShipmentID  int64  `json:"shipment_id"`
	GuideNumber string `json:"guide_number"`
	Units       int    `json:"units"`
}
