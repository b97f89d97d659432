package shipping

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// DeliveryUseCase verificación de entrega por escaneo de cada unidad.
type DeliveryUseCase struct {
	txRunner     TxRunner
	shipmentRepo repository.ShipmentRepository
	log          *logger.Logger
	now          func() time.Time
}

// NewDeliveryUseCase construye el caso de uso.
func NewDeliveryUseCase(txRunner TxRunner, shipmentRepo repository.ShipmentRepository, log *logger.Logger) *DeliveryUseCase {
	return &DeliveryUseCase{txRunner: txRunner, shipmentRepo: shipmentRepo, log: log, now: time.Now}
}

// StartTransit pendiente → en tránsito (salida del vehículo).
func (uc *DeliveryUseCase) StartTransit(ctx context.Context, actor entity.Actor, shipmentID int64) (*dto.ShipmentResponse, error) {
	err := uc.txRunner.RunShipping(ctx, func(
		_ repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		_ repository.DeliveryScanRepository,
		_ repository.ClientRepository,
	) error {
		s, err := loadShipment(ctx, shipmentRepo, actor, shipmentID, true)
		if err != nil {
			return err
		}
		if s.Status != entity.ShipmentPending {
			return fmt.Errorf("%w: envío en estado %s", domain.ErrInvalidTransition, s.Status)
		}
		return shipmentRepo.UpdateStatus(ctx, shipmentID, entity.ShipmentInTransit, nil)
	})
	if err != nil {
		return nil, err
	}
	s, err := loadShipment(ctx, uc.shipmentRepo, actor, shipmentID, false)
	if err != nil {
		return nil, err
	}
	return toShipmentResponse(s), nil
}

// Scan registra la lectura de un código en la entrega. Repetir un código es idempotente.
// Cuando escaneados == total el envío pasa a entregado y sus unidades a despachadas,
// también si la lectura repetida encuentra el envío ya completo.
func (uc *DeliveryUseCase) Scan(ctx context.Context, actor entity.Actor, shipmentID int64, code string) (*dto.ScanResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: código vacío", domain.ErrValidation)
	}
	var out *dto.ScanResponse
	err := uc.txRunner.RunShipping(ctx, func(
		unitRepo repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		scanRepo repository.DeliveryScanRepository,
		_ repository.ClientRepository,
	) error {
		s, err := loadShipment(ctx, shipmentRepo, actor, shipmentID, true)
		if err != nil {
			return err
		}
		if !s.Status.CanScan() {
			return fmt.Errorf("%w: envío en estado %s", domain.ErrInvalidTransition, s.Status)
		}
		item, err := shipmentRepo.FindItemByBarcode(ctx, shipmentID, code)
		if err != nil {
			return err
		}
		if item == nil {
			return &domain.UnitError{Barcode: code, Err: domain.ErrNotInShipment}
		}

		now := uc.now()
		created, err := scanRepo.Create(ctx, &entity.DeliveryScan{
			ShipmentID: shipmentID,
			ItemID:     item.ID,
			ScannedAt:  now,
			ScannedBy:  actor.UserID,
		})
		if err != nil {
			return err
		}
		scanned, err := scanRepo.CountByShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		total := len(s.Items)
		out = &dto.ScanResponse{
			AlreadyScanned: !created,
			Progress:       progress(scanned, total),
			Scanned:        scanned,
			Total:          total,
			Status:         string(s.Status),
		}
		if scanned < total {
			return nil
		}
		if err := complete(ctx, unitRepo, shipmentRepo, s, now); err != nil {
			return err
		}
		out.Completed = true
		out.Status = string(entity.ShipmentDelivered)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForceComplete cierra la entrega sin escanear todo. Solo admin; queda registrado en el log.
func (uc *DeliveryUseCase) ForceComplete(ctx context.Context, actor entity.Actor, shipmentID int64) (*dto.ShipmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	var scanned, total int
	err := uc.txRunner.RunShipping(ctx, func(
		unitRepo repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		scanRepo repository.DeliveryScanRepository,
		_ repository.ClientRepository,
	) error {
		s, err := loadShipment(ctx, shipmentRepo, actor, shipmentID, true)
		if err != nil {
			return err
		}
		if !s.Status.CanScan() {
			return fmt.Errorf("%w: envío en estado %s", domain.ErrInvalidTransition, s.Status)
		}
		if scanned, err = scanRepo.CountByShipment(ctx, shipmentID); err != nil {
			return err
		}
		total = len(s.Items)
		return complete(ctx, unitRepo, shipmentRepo, s, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.log.Warn().
		Int64("shipment_id", shipmentID).
		Int64("user_id", actor.UserID).
		Str("role", actor.Role).
		Int("scanned", scanned).
		Int("total", total).
		Msg("entrega completada forzosamente")

	s, err := loadShipment(ctx, uc.shipmentRepo, actor, shipmentID, false)
	if err != nil {
		return nil, err
	}
	return toShipmentResponse(s), nil
}

// VerificationStatus avance de escaneo del envío.
func (uc *DeliveryUseCase) VerificationStatus(ctx context.Context, actor entity.Actor, shipmentID int64) (*dto.VerificationStatusResponse, error) {
	s, err := loadShipment(ctx, uc.shipmentRepo, actor, shipmentID, false)
	if err != nil {
		return nil, err
	}
	scanned := 0
	for _, it := range s.Items {
		if it.Scanned {
			scanned++
		}
	}
	total := len(s.Items)
	return &dto.VerificationStatusResponse{
		ShipmentID:  s.ID,
		GuideNumber: s.GuideNumber,
		Status:      string(s.Status),
		Total:       total,
		Scanned:     scanned,
		Pending:     total - scanned,
		Percentage:  progress(scanned, total),
		VerifiedAt:  s.VerifiedAt,
	}, nil
}

// PendingItems ítems aún sin escanear.
func (uc *DeliveryUseCase) PendingItems(ctx context.Context, actor entity.Actor, shipmentID int64) ([]dto.ShipmentItemResponse, error) {
	s, err := loadShipment(ctx, uc.shipmentRepo, actor, shipmentID, false)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ShipmentItemResponse, 0)
	for _, it := range s.Items {
		if it.Scanned {
			continue
		}
		out = append(out, dto.ShipmentItemResponse{
			ID:          it.ID,
			UnitID:      it.UnitID,
			Barcode:     it.Barcode,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
		})
	}
	return out, nil
}

// complete entregado + fecha de verificación + unidades despachadas.
func complete(ctx context.Context, unitRepo repository.UnitRepository, shipmentRepo repository.ShipmentRepository, s *entity.Shipment, now time.Time) error {
	if ids := unitIDs(s.Items); len(ids) > 0 {
		if err := unitRepo.UpdateStatus(ctx, ids, entity.UnitDispatched); err != nil {
			return err
		}
	}
	return shipmentRepo.UpdateStatus(ctx, s.ID, entity.ShipmentDelivered, &now)
}

// progress porcentaje con dos decimales; sin ítems cuenta como 100.
func progress(scanned, total int) float64 {
	if total == 0 {
		return 100
	}
	return math.Round(float64(scanned)*10000/float64(total)) / 100
}
