package dto

// ErrorResponse cuerpo de error HTTP.
// Details lista los identificadores que causaron el fallo (ej. códigos de barras rechazados).
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail fallo individual dentro de un lote.
type ErrorDetail struct {
	Barcode string `json:"barcode"`
	Code    string `json:"code"`
	Status  string `json:"status,omitempty"`
}
