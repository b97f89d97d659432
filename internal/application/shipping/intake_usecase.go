package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// IntakeUseCase ingreso masivo: códigos escaneados sueltos se agrupan en un envío por cliente.
type IntakeUseCase struct {
	txRunner TxRunner
	guides   GuideGenerator
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewIntakeUseCase construye el caso de uso.
func NewIntakeUseCase(txRunner TxRunner, guides GuideGenerator, log *logger.Logger) *IntakeUseCase {
	return &IntakeUseCase{
		txRunner: txRunner,
		guides:   guides,
		log:      log,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// ScanBatch valida todos los códigos (existen, disponibles, sin repetir), crea un envío
// pendiente por cliente activo con precio 0 y reserva las unidades. Todo o nada.
// Solo admin u operador.
func (uc *IntakeUseCase) ScanBatch(ctx context.Context, actor entity.Actor, in dto.BulkIntakeRequest) (*dto.BulkIntakeResponse, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	codes := make([]string, 0, len(in.Barcodes))
	for _, c := range in.Barcodes {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: sin códigos", domain.ErrValidation)
	}

	batchID := uc.newID()
	resp := &dto.BulkIntakeResponse{BatchID: batchID}

	err := uc.txRunner.RunShipping(ctx, func(
		unitRepo repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		_ repository.DeliveryScanRepository,
		clientRepo repository.ClientRepository,
	) error {
		items := make([]dto.ShipmentItemRequest, 0, len(codes))
		for _, c := range codes {
			items = append(items, dto.ShipmentItemRequest{Barcode: c, UnitPrice: decimal.Zero})
		}
		// clientID 0: cualquier cliente; el agrupamiento lo decide la unidad.
		rs, err := validateBatch(ctx, unitRepo, shipmentRepo, actor, 0, items)
		if err != nil {
			return err
		}

		var order []int64
		groups := map[int64][]reservation{}
		for _, r := range rs {
			if _, ok := groups[r.unit.ClientID]; !ok {
				order = append(order, r.unit.ClientID)
			}
			groups[r.unit.ClientID] = append(groups[r.unit.ClientID], r)
		}

		now := uc.now()
		resp.Shipments = make([]dto.BulkIntakeShipment, 0, len(order))
		for _, clientID := range order {
			client, err := clientRepo.GetByID(ctx, clientID)
			if err != nil {
				return err
			}
			if client == nil {
				return fmt.Errorf("%w: cliente %d", domain.ErrNotFound, clientID)
			}
			if !client.Active {
				return fmt.Errorf("%w: cliente %d inactivo", domain.ErrValidation, clientID)
			}
			s, err := createShipment(ctx, shipmentRepo, uc.guides, client, header{
				driver:    in.Driver,
				plate:     in.Plate,
				origin:    in.Origin,
				batchID:   batchID,
				createdBy: actor.UserID,
			}, now)
			if err != nil {
				return err
			}
			if err := reserve(ctx, unitRepo, shipmentRepo, s, groups[clientID], now); err != nil {
				return err
			}
			resp.Shipments = append(resp.Shipments, dto.BulkIntakeShipment{
				ClientID:    clientID,
				ShipmentID:  s.ID,
				GuideNumber: s.GuideNumber,
				Units:       len(groups[clientID]),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("batch_id", batchID).
		Int("units", len(codes)).
		Int("shipments", len(resp.Shipments)).
		Int64("user_id", actor.UserID).
		Msg("ingreso masivo registrado")
	return resp, nil
}
