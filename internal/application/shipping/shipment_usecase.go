package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// ShipmentUseCase arma envíos: valida y reserva unidades y mantiene el valor total.
type ShipmentUseCase struct {
	txRunner     TxRunner
	shipmentRepo repository.ShipmentRepository
	unitRepo     repository.UnitRepository
	guides       GuideGenerator
	log          *logger.Logger
	now          func() time.Time
}

// NewShipmentUseCase construye el caso de uso.
func NewShipmentUseCase(
	txRunner TxRunner,
	shipmentRepo repository.ShipmentRepository,
	unitRepo repository.UnitRepository,
	guides GuideGenerator,
	log *logger.Logger,
) *ShipmentUseCase {
	return &ShipmentUseCase{
		txRunner:     txRunner,
		shipmentRepo: shipmentRepo,
		unitRepo:     unitRepo,
		guides:       guides,
		log:          log,
		now:          time.Now,
	}
}

// CreateShipment crea el envío en borrador con guía única; si trae ítems los agrega
// en la misma transacción (y el envío queda pendiente).
func (uc *ShipmentUseCase) CreateShipment(ctx context.Context, actor entity.Actor, in dto.CreateShipmentRequest) (*dto.ShipmentResponse, error) {
	if err := checkPrices(in.Items); err != nil {
		return nil, err
	}
	var id int64
	err := uc.txRunner.RunShipping(ctx, func(
		unitRepo repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		_ repository.DeliveryScanRepository,
		clientRepo repository.ClientRepository,
	) error {
		client, err := activeClient(ctx, clientRepo, actor, in.ClientID)
		if err != nil {
			return err
		}
		now := uc.now()
		s, err := createShipment(ctx, shipmentRepo, uc.guides, client, header{
			driver:    in.Driver,
			plate:     in.Plate,
			origin:    in.Origin,
			createdBy: actor.UserID,
		}, now)
		if err != nil {
			return err
		}
		id = s.ID
		if len(in.Items) == 0 {
			return nil
		}
		rs, err := validateBatch(ctx, unitRepo, shipmentRepo, actor, s.ClientID, in.Items)
		if err != nil {
			return err
		}
		return reserve(ctx, unitRepo, shipmentRepo, s, rs, now)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetShipment(ctx, actor, id)
}

// GetShipment envío con sus ítems.
func (uc *ShipmentUseCase) GetShipment(ctx context.Context, actor entity.Actor, id int64) (*dto.ShipmentResponse, error) {
	s, err := loadShipment(ctx, uc.shipmentRepo, actor, id, false)
	if err != nil {
		return nil, err
	}
	return toShipmentResponse(s), nil
}

// AddItems agrega un lote de unidades. Cualquier fallo rechaza el lote completo
// y el error lista todos los códigos rechazados.
func (uc *ShipmentUseCase) AddItems(ctx context.Context, actor entity.Actor, shipmentID int64, items []dto.ShipmentItemRequest) (*dto.ShipmentResponse, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: lote vacío", domain.ErrValidation)
	}
	if err := checkPrices(items); err != nil {
		return nil, err
	}
	err := uc.txRunner.RunShipping(ctx, func(
		unitRepo repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		_ repository.DeliveryScanRepository,
		_ repository.ClientRepository,
	) error {
		s, err := loadShipment(ctx, shipmentRepo, actor, shipmentID, true)
		if err != nil {
			return err
		}
		if !s.Status.AcceptsItems() {
			return fmt.Errorf("%w: envío en estado %s", domain.ErrInvalidTransition, s.Status)
		}
		rs, err := validateBatch(ctx, unitRepo, shipmentRepo, actor, s.ClientID, items)
		if err != nil {
			return err
		}
		return reserve(ctx, unitRepo, shipmentRepo, s, rs, uc.now())
	})
	if err != nil {
		return nil, err
	}
	return uc.GetShipment(ctx, actor, shipmentID)
}

// RemoveItem quita un ítem: la unidad vuelve a disponible, se recalcula el total
// y si no quedan ítems el envío vuelve a borrador. Solo antes del primer escaneo.
func (uc *ShipmentUseCase) RemoveItem(ctx context.Context, actor entity.Actor, shipmentID, itemID int64) (*dto.ShipmentResponse, error) {
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
		if !s.Status.AcceptsItems() {
			return fmt.Errorf("%w: envío en estado %s", domain.ErrInvalidTransition, s.Status)
		}
		// con la verificación iniciada el conteo escaneados/total ya no puede bajar
		scanned, err := scanRepo.CountByShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		if scanned > 0 {
			return fmt.Errorf("%w: envío con %d unidades escaneadas", domain.ErrInvalidTransition, scanned)
		}
		item, err := shipmentRepo.GetItem(ctx, shipmentID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("%w: ítem %d en envío %d", domain.ErrNotFound, itemID, shipmentID)
		}
		if err := shipmentRepo.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		if err := unitRepo.UpdateStatus(ctx, []int64{item.UnitID}, entity.UnitAvailable); err != nil {
			return err
		}
		if _, err := shipmentRepo.RecomputeTotal(ctx, shipmentID); err != nil {
			return err
		}
		left, err := shipmentRepo.CountItems(ctx, shipmentID)
		if err != nil {
			return err
		}
		if left == 0 && s.Status != entity.ShipmentDraft {
			return shipmentRepo.UpdateStatus(ctx, shipmentID, entity.ShipmentDraft, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.GetShipment(ctx, actor, shipmentID)
}

// CancelShipment cancela un envío no terminal y libera sus unidades.
func (uc *ShipmentUseCase) CancelShipment(ctx context.Context, actor entity.Actor, shipmentID int64) (*dto.ShipmentResponse, error) {
	err := uc.txRunner.RunShipping(ctx, func(
		unitRepo repository.UnitRepository,
		shipmentRepo repository.ShipmentRepository,
		_ repository.DeliveryScanRepository,
		_ repository.ClientRepository,
	) error {
		s, err := loadShipment(ctx, shipmentRepo, actor, shipmentID, true)
		if err != nil {
			return err
		}
		if s.Status.IsTerminal() {
			return fmt.Errorf("%w: envío cerrado (%s)", domain.ErrInvalidTransition, s.Status)
		}
		if !s.Status.CanTransitionTo(entity.ShipmentCancelled) {
			return fmt.Errorf("%w: envío en estado %s", domain.ErrInvalidTransition, s.Status)
		}
		if ids := unitIDs(s.Items); len(ids) > 0 {
			if err := unitRepo.UpdateStatus(ctx, ids, entity.UnitAvailable); err != nil {
				return err
			}
		}
		return shipmentRepo.UpdateStatus(ctx, shipmentID, entity.ShipmentCancelled, nil)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("shipment_id", shipmentID).Int64("user_id", actor.UserID).Msg("envío cancelado")
	return uc.GetShipment(ctx, actor, shipmentID)
}

// AvailableUnitsByClient unidades disponibles del cliente agrupadas por carga
// (solo cargas etiquetadas o almacenadas).
func (uc *ShipmentUseCase) AvailableUnitsByClient(ctx context.Context, actor entity.Actor, clientID int64) ([]dto.AvailableLoadResponse, error) {
	if !actor.CanActOnClient(clientID) {
		return nil, domain.ErrForbidden
	}
	units, err := uc.unitRepo.ListAvailableByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AvailableLoadResponse, 0)
	index := map[int64]int{}
	for _, u := range units {
		i, ok := index[u.LoadID]
		if !ok {
			out = append(out, dto.AvailableLoadResponse{LoadID: u.LoadID, Remision: u.Remision})
			i = len(out) - 1
			index[u.LoadID] = i
		}
		out[i].Units = append(out[i].Units, dto.UnitResponse{
			ID:          u.ID,
			Barcode:     u.Barcode,
			Status:      string(u.Status),
			LoadID:      u.LoadID,
			LoadItemID:  u.LoadItemID,
			ClientID:    u.ClientID,
			ProductSKU:  u.ProductSKU,
			ProductName: u.ProductName,
		})
	}
	return out, nil
}

func unitIDs(items []*entity.ShipmentItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.UnitID)
	}
	return ids
}

func toShipmentResponse(s *entity.Shipment) *dto.ShipmentResponse {
	items := make([]dto.ShipmentItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.ShipmentItemResponse{
			ID:          it.ID,
			UnitID:      it.UnitID,
			Barcode:     it.Barcode,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Scanned:     it.Scanned,
		})
	}
	return &dto.ShipmentResponse{
		ID:            s.ID,
		GuideNumber:   s.GuideNumber,
		ClientID:      s.ClientID,
		Driver:        s.Driver,
		Plate:         s.Plate,
		Origin:        s.Origin,
		TotalValue:    s.TotalValue,
		Status:        string(s.Status),
		VerifiedAt:    s.VerifiedAt,
		IntakeBatchID: s.IntakeBatchID,
		Items:         items,
		CreatedAt:     s.CreatedAt,
	}
}
