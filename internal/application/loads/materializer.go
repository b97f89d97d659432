package loads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/barcode"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// UnitMaterializer expande los ítems de una carga en unidades con código de barras.
// Es idempotente: solo crea el faltante de cada ítem.
type UnitMaterializer struct {
	txRunner TxRunner
	barcodes BarcodeGenerator
	log      *logger.Logger
	now      func() time.Time
}

// NewUnitMaterializer construye el materializador.
func NewUnitMaterializer(txRunner TxRunner, barcodes BarcodeGenerator, log *logger.Logger) *UnitMaterializer {
	return &UnitMaterializer{txRunner: txRunner, barcodes: barcodes, log: log, now: time.Now}
}

// Materialize crea en una sola transacción las unidades faltantes de la carga.
func (m *UnitMaterializer) Materialize(ctx context.Context, loadID int64) (*dto.MaterializeResponse, error) {
	var out *dto.MaterializeResponse
	err := m.txRunner.RunLoads(ctx, func(
		loadRepo repository.LoadRepository,
		unitRepo repository.UnitRepository,
		_ repository.ProductRepository,
	) error {
		res, err := m.MaterializeInTx(ctx, loadRepo, unitRepo, loadID)
		out = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MaterializeInTx usa los repositorios de la transacción del caller.
// La secuencia arranca después del conteo actual de unidades de la carga.
func (m *UnitMaterializer) MaterializeInTx(
	ctx context.Context,
	loadRepo repository.LoadRepository,
	unitRepo repository.UnitRepository,
	loadID int64,
) (*dto.MaterializeResponse, error) {
	load, err := loadRepo.GetForUpdate(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if load == nil {
		return nil, fmt.Errorf("%w: carga %d", domain.ErrNotFound, loadID)
	}
	seq, err := unitRepo.CountByLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	created := 0
	hasUnits := false
	for _, item := range load.Items {
		deficit := item.Deficit()
		for i := 0; i < deficit; i++ {
			seq++
			if err := m.createUnit(ctx, unitRepo, load, item, seq, now); err != nil {
				return nil, err
			}
		}
		item.UnitCount += deficit
		created += deficit
		if item.UnitCount > 0 {
			hasUnits = true
		}
	}

	if hasUnits {
		if next := load.Status.AfterMaterialize(); next != load.Status {
			if err := loadRepo.UpdateStatus(ctx, load.ID, next); err != nil {
				return nil, err
			}
			load.Status = next
		}
	}

	if created > 0 {
		m.log.Info().Int64("load_id", load.ID).Int("created", created).Msg("unidades generadas")
	}
	return &dto.MaterializeResponse{LoadID: load.ID, Created: created, Status: string(load.Status)}, nil
}

// createUnit reintenta con un token nuevo si el código ya existe.
func (m *UnitMaterializer) createUnit(
	ctx context.Context,
	unitRepo repository.UnitRepository,
	load *entity.Load,
	item *entity.LoadItem,
	seq int,
	now time.Time,
) error {
	for attempt := 1; attempt <= barcode.MaxAttempts; attempt++ {
		code, err := m.barcodes.Generate(load.ClientID, load.ID, seq)
		if err != nil {
			return err
		}
		unit := &entity.Unit{
			LoadItemID: item.ID,
			Barcode:    code,
			Status:     entity.UnitAvailable,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err = unitRepo.Create(ctx, unit)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		m.log.Warn().Str("barcode", code).Int("attempt", attempt).Msg("colisión de código de barras, reintentando")
	}
	return fmt.Errorf("%w: carga %d secuencia %d", domain.ErrBarcodeExhausted, load.ID, seq)
}
