package entity

import "time"

// LoadStatus estado de una carga entrante.
type LoadStatus string

const (
	LoadReceived LoadStatus = "recibida"
	LoadLabeled  LoadStatus = "etiquetada"
	LoadStored   LoadStatus = "almacenada"
)

func (s LoadStatus) IsValid() bool {
	switch s {
	case LoadReceived, LoadLabeled, LoadStored:
		return true
	}
	return false
}

// AfterMaterialize estado resultante cuando la carga ya tiene unidades.
// almacenada nunca retrocede.
func (s LoadStatus) AfterMaterialize() LoadStatus {
	if s == LoadStored {
		return s
	}
	return LoadLabeled
}

// CanStore solo una carga etiquetada pasa a almacenada.
func (s LoadStatus) CanStore() bool { return s == LoadLabeled }

// Load carga recibida de un proveedor para un cliente.
type Load struct {
	ID          int64
	ClientID    int64
	SupplierID  int64
	Remision    string
	InvoiceFile string // ruta del adjunto; opcional
	Notes       string
	Status      LoadStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []*LoadItem
}

// LoadItem línea de la carga: producto y cantidad esperada de unidades.
type LoadItem struct {
	ID        int64
	LoadID    int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time

	// Campos de lectura (join).
	ProductSKU  string
	ProductName string
	UnitCount   int
}

// Deficit unidades que faltan por materializar.
func (i *LoadItem) Deficit() int {
	if d := i.Quantity - i.UnitCount; d > 0 {
		return d
	}
	return 0
}
