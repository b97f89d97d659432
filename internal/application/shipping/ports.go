package shipping

import (
	"context"

	"github.com/jhoicas/logistica-api/internal/domain/guide"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye unidades, envíos y escaneos.
// Toda mutación de envíos (ítems, escaneo, cierre, ingreso masivo) corre en una sola transacción.
type TxRunner interface {
	RunShipping(ctx context.Context, fn func(
		unitRepo repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		scanRepo repository.DeliveryScanRepository,
		clientRepo repository.ClientRepository,
	) error) error
}

// GuideGenerator genera números de guía únicos; implementado por guide.Generator.
type GuideGenerator interface {
	Next(ctx context.Context, clientName string, exists guide.ExistsFunc) (string, error)
}
