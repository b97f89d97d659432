package repository

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// ClientRepository lectura de clientes (datos de referencia).
// GetByID devuelve nil, nil si no existe.
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
}

// SupplierRepository lectura de proveedores.
type SupplierRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Supplier, error)
}
