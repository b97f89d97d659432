package entity

import "time"

// Client cliente dueño de la mercancía. Datos de referencia (solo lectura para el núcleo).
type Client struct {
	ID        int64
	Name      string
	NIT       string // NIT colombiano (con o sin dígito de verificación)
	Active    bool
	CreatedAt time.Time
}

// Supplier proveedor que despacha la carga.
type Supplier struct {
	ID        int64
	Name      string
	NIT       string
	Active    bool
	CreatedAt time.Time
}
