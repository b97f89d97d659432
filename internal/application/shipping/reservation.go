package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/logistica-api/internal/application/dto"
	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/guide"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

// reservation unidad validada y el precio con que entra al envío.
type reservation struct {
	unit  *entity.Unit
	price decimal.Decimal
}

// header datos comunes de un envío nuevo.
type header struct {
	driver, plate, origin string
	batchID               string
	createdBy             int64
}

// checkPrices rechaza precios negativos antes de tocar unidades.
func checkPrices(items []dto.ShipmentItemRequest) error {
	for _, it := range items {
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: precio negativo para %s", domain.ErrValidation, it.Barcode)
		}
	}
	return nil
}

// validateBatch aplica en orden de entrada: existe, pertenece al cliente, disponible,
// sin reserva activa y no repetido en el lote. Recolecta todos los fallos.
// Las filas de unidad quedan bloqueadas hasta el fin de la transacción.
func validateBatch(
	ctx context.Context,
	unitRepo repository.UnitRepository,
	shipmentRepo repository.ShipmentRepository,
	actor entity.Actor,
	clientID int64,
	items []dto.ShipmentItemRequest,
) ([]reservation, error) {
	batch := &domain.BatchError{}
	seen := make(map[string]bool, len(items))
	out := make([]reservation, 0, len(items))

	for _, it := range items {
		code := strings.TrimSpace(it.Barcode)
		if seen[code] {
			batch.Add(code, "", domain.ErrDuplicateInBatch)
			continue
		}
		seen[code] = true

		unit, err := unitRepo.GetByBarcodeForUpdate(ctx, code)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			batch.Add(code, "", domain.ErrNotFound)
			continue
		}
		if (clientID != 0 && unit.ClientID != clientID) || !actor.CanActOnClient(unit.ClientID) {
			batch.Add(code, "", domain.ErrOwnershipMismatch)
			continue
		}
		active, err := shipmentRepo.FindActiveItemByUnit(ctx, unit.ID)
		if err != nil {
			return nil, err
		}
		switch {
		case unit.Status != entity.UnitAvailable && active != nil:
			batch.Add(code, string(unit.Status), domain.ErrAlreadyAssigned)
			continue
		case unit.Status != entity.UnitAvailable:
			batch.Add(code, string(unit.Status), domain.ErrNotAvailable)
			continue
		case active != nil:
			batch.Add(code, string(unit.Status), domain.ErrAlreadyAssigned)
			continue
		}
		out = append(out, reservation{unit: unit, price: it.UnitPrice})
	}

	if err := batch.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// reserve crea los ítems, reserva las unidades, recalcula el total y pasa borrador → pendiente.
// Una violación del índice de reserva activa se reporta como ErrAlreadyAssigned.
func reserve(
	ctx context.Context,
	unitRepo repository.UnitRepository,
	shipmentRepo repository.ShipmentRepository,
	s *entity.Shipment,
	rs []reservation,
	now time.Time,
) error {
	if len(rs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(rs))
	for _, r := range rs {
		item := &entity.ShipmentItem{
			ShipmentID: s.ID,
			UnitID:     r.unit.ID,
			UnitPrice:  r.price,
			Active:     true,
			CreatedAt:  now,
		}
		if err := shipmentRepo.AddItem(ctx, item); err != nil {
			if errors.Is(err, domain.ErrAlreadyAssigned) {
				b := &domain.BatchError{}
				b.Add(r.unit.Barcode, string(r.unit.Status), domain.ErrAlreadyAssigned)
				return b
			}
			return err
		}
		if err := r.unit.TransitionTo(entity.UnitReserved); err != nil {
			return &domain.UnitError{Barcode: r.unit.Barcode, Status: string(r.unit.Status), Err: domain.ErrNotAvailable}
		}
		ids = append(ids, r.unit.ID)
	}
	if err := unitRepo.UpdateStatus(ctx, ids, entity.UnitReserved); err != nil {
		return err
	}
	total, err := shipmentRepo.RecomputeTotal(ctx, s.ID)
	if err != nil {
		return err
	}
	s.TotalValue = total
	if s.Status == entity.ShipmentDraft {
		if err := shipmentRepo.UpdateStatus(ctx, s.ID, entity.ShipmentPending, nil); err != nil {
			return err
		}
		s.Status = entity.ShipmentPending
	}
	return nil
}

// createShipment inserta un envío en borrador con número de guía único.
// Reintenta si otra transacción tomó la guía entre la consulta y el insert.
func createShipment(
	ctx context.Context,
	shipmentRepo repository.ShipmentRepository,
	guides GuideGenerator,
	client *entity.Client,
	h header,
	now time.Time,
) (*entity.Shipment, error) {
	for attempt := 0; attempt < guide.MaxAttempts; attempt++ {
		number, err := guides.Next(ctx, client.Name, shipmentRepo.ExistsGuide)
		if err != nil {
			return nil, err
		}
		s := &entity.Shipment{
			GuideNumber:   number,
			ClientID:      client.ID,
			Driver:        h.driver,
			Plate:         strings.ToUpper(strings.TrimSpace(h.plate)),
			Origin:        h.origin,
			TotalValue:    decimal.Zero,
			Status:        entity.ShipmentDraft,
			IntakeBatchID: h.batchID,
			CreatedBy:     h.createdBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = shipmentRepo.Create(ctx, s)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: número de guía para cliente %d", domain.ErrDuplicate, client.ID)
}

// activeClient valida existencia, estado y alcance del actor.
func activeClient(ctx context.Context, clientRepo repository.ClientRepository, actor entity.Actor, clientID int64) (*entity.Client, error) {
	if !actor.CanActOnClient(clientID) {
		return nil, domain.ErrForbidden
	}
	client, err := clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: cliente %d", domain.ErrNotFound, clientID)
	}
	if !client.Active {
		return nil, fmt.Errorf("%w: cliente %d inactivo", domain.ErrValidation, clientID)
	}
	return client, nil
}

func loadShipment(ctx context.Context, shipmentRepo repository.ShipmentRepository, actor entity.Actor, id int64, lock bool) (*entity.Shipment, error) {
	var (
		s   *entity.Shipment
		err error
	)
	if lock {
		s, err = shipmentRepo.GetForUpdate(ctx, id)
	} else {
		s, err = shipmentRepo.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: envío %d", domain.ErrNotFound, id)
	}
	if !actor.CanActOnClient(s.ClientID) {
		return nil, domain.ErrForbidden
	}
	return s, nil
}
