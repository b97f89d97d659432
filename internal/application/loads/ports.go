package loads

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Materializar unidades y editar ítems es todo o nada.
type TxRunner interface {
	RunLoads(ctx context.Context, fn func(
		loadRepo repository.LoadRepository,
		unitRepo repository.UnitRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// BarcodeGenerator genera códigos de unidad; implementado por barcode.Generator.
type BarcodeGenerator interface {
	Generate(clientID, loadID int64, seq int) (string, error)
}

// LabelRenderer puerto de salida para imprimir etiquetas (PDF).
type LabelRenderer interface {
	RenderLabels(ctx context.Context, load *entity.Load, client *entity.Client, units []*entity.Unit) ([]byte, error)
}
