package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var (
	_ repository.ShipmentRepository     = (*ShipmentRepo)(nil)
	_ repository.DeliveryScanRepository = (*ScanRepo)(nil)
)

// ShipmentRepo envíos e ítems en memoria.
// Replica el índice único parcial: una unidad con a lo sumo un ítem activo.
type ShipmentRepo struct{ ss session }

func NewShipmentRepository(s *Store) *ShipmentRepo { return &ShipmentRepo{ss: session{s: s}} }

func (r *ShipmentRepo) Create(_ context.Context, s *entity.Shipment) error {
	return r.ss.read(func(st *state) error {
		if _, ok := st.clients[s.ClientID]; !ok {
			return fmt.Errorf("crear envío: cliente %d: %w", s.ClientID, domain.ErrNotFound)
		}
		for _, existing := range st.shipments {
			if existing.GuideNumber == s.GuideNumber {
				return fmt.Errorf("%w: guía %s", domain.ErrDuplicate, s.GuideNumber)
			}
		}
		s.ID = st.id("shipments")
		row := *s
		row.Items = nil
		st.shipments[s.ID] = row
		return nil
	})
}

func (r *ShipmentRepo) ExistsGuide(_ context.Context, guide string) (bool, error) {
	found := false
	err := r.ss.read(func(st *state) error {
		for _, s := range st.shipments {
			if s.GuideNumber == guide {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *ShipmentRepo) GetByID(_ context.Context, id int64) (*entity.Shipment, error) {
	var out *entity.Shipment
	err := r.ss.read(func(st *state) error {
		s, ok := st.shipments[id]
		if !ok {
			return nil
		}
		for _, it := range st.shipmentItems {
			if it.ShipmentID == id {
				s.Items = append(s.Items, st.joinItem(it))
			}
		}
		sort.Slice(s.Items, func(i, j int) bool { return s.Items[i].ID < s.Items[j].ID })
		out = &s
		return nil
	})
	return out, err
}

func (r *ShipmentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Shipment, error) {
	return r.GetByID(ctx, id)
}

func (r *ShipmentRepo) UpdateStatus(_ context.Context, id int64, status entity.ShipmentStatus, verifiedAt *time.Time) error {
	return r.ss.read(func(st *state) error {
		s, ok := st.shipments[id]
		if !ok {
			return fmt.Errorf("actualizar envío %d: %w", id, domain.ErrNotFound)
		}
		s.Status = status
		if verifiedAt != nil {
			v := *verifiedAt
			s.VerifiedAt = &v
		}
		s.UpdatedAt = time.Now()
		st.shipments[id] = s
		active := status.IsActive()
		for itemID, it := range st.shipmentItems {
			if it.ShipmentID == id {
				it.Active = active
				st.shipmentItems[itemID] = it
			}
		}
		return nil
	})
}

func (r *ShipmentRepo) AddItem(_ context.Context, item *entity.ShipmentItem) error {
	return r.ss.read(func(st *state) error {
		if _, ok := st.shipments[item.ShipmentID]; !ok {
			return fmt.Errorf("agregar ítem: envío %d: %w", item.ShipmentID, domain.ErrNotFound)
		}
		if _, ok := st.units[item.UnitID]; !ok {
			return fmt.Errorf("agregar ítem: unidad %d: %w", item.UnitID, domain.ErrNotFound)
		}
		for _, existing := range st.shipmentItems {
			if existing.UnitID != item.UnitID {
				continue
			}
			if existing.ShipmentID == item.ShipmentID || (existing.Active && item.Active) {
				return fmt.Errorf("%w: unidad %d", domain.ErrAlreadyAssigned, item.UnitID)
			}
		}
		item.ID = st.id("shipment_items")
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now()
		}
		st.shipmentItems[item.ID] = entity.ShipmentItem{
			ID:         item.ID,
			ShipmentID: item.ShipmentID,
			UnitID:     item.UnitID,
			UnitPrice:  item.UnitPrice,
			Active:     item.Active,
			CreatedAt:  item.CreatedAt,
		}
		return nil
	})
}

func (r *ShipmentRepo) GetItem(_ context.Context, shipmentID, itemID int64) (*entity.ShipmentItem, error) {
	var out *entity.ShipmentItem
	err := r.ss.read(func(st *state) error {
		if it, ok := st.shipmentItems[itemID]; ok && it.ShipmentID == shipmentID {
			out = st.joinItem(it)
		}
		return nil
	})
	return out, err
}

// DeleteItem borra el ítem y su escaneo (cascada).
func (r *ShipmentRepo) DeleteItem(_ context.Context, itemID int64) error {
	return r.ss.read(func(st *state) error {
		if _, ok := st.shipmentItems[itemID]; !ok {
			return fmt.Errorf("eliminar ítem %d: %w", itemID, domain.ErrNotFound)
		}
		delete(st.shipmentItems, itemID)
		for id, sc := range st.scans {
			if sc.ItemID == itemID {
				delete(st.scans, id)
			}
		}
		return nil
	})
}

func (r *ShipmentRepo) FindActiveItemByUnit(_ context.Context, unitID int64) (*entity.ShipmentItem, error) {
	var out *entity.ShipmentItem
	err := r.ss.read(func(st *state) error {
		for _, it := range st.shipmentItems {
			if it.UnitID == unitID && it.Active {
				out = st.joinItem(it)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ShipmentRepo) FindItemByBarcode(_ context.Context, shipmentID int64, barcode string) (*entity.ShipmentItem, error) {
	var out *entity.ShipmentItem
	err := r.ss.read(func(st *state) error {
		for _, it := range st.shipmentItems {
			if it.ShipmentID != shipmentID {
				continue
			}
			if u, ok := st.units[it.UnitID]; ok && u.Barcode == barcode {
				out = st.joinItem(it)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ShipmentRepo) CountItems(_ context.Context, shipmentID int64) (int, error) {
	n := 0
	err := r.ss.read(func(st *state) error {
		for _, it := range st.shipmentItems {
			if it.ShipmentID == shipmentID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ShipmentRepo) RecomputeTotal(_ context.Context, shipmentID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.ss.read(func(st *state) error {
		s, ok := st.shipments[shipmentID]
		if !ok {
			return fmt.Errorf("recalcular total %d: %w", shipmentID, domain.ErrNotFound)
		}
		var items []*entity.ShipmentItem
		for _, it := range st.shipmentItems {
			if it.ShipmentID == shipmentID {
				items = append(items, &it)
			}
		}
		total = entity.SumPrices(items)
		s.TotalValue = total
		st.shipments[shipmentID] = s
		return nil
	})
	return total, err
}

func (st *state) joinItem(it entity.ShipmentItem) *entity.ShipmentItem {
	if u, ok := st.units[it.UnitID]; ok {
		j := st.joinUnit(u)
		it.Barcode = j.Barcode
		it.ProductName = j.ProductName
	}
	for _, sc := range st.scans {
		if sc.ItemID == it.ID {
			it.Scanned = true
			break
		}
	}
	return &it
}

// ScanRepo escaneos de entrega; uno por ítem.
type ScanRepo struct{ ss session }

func NewScanRepository(s *Store) *ScanRepo { return &ScanRepo{ss: session{s: s}} }

func (r *ScanRepo) Create(_ context.Context, scan *entity.DeliveryScan) (bool, error) {
	created := false
	err := r.ss.read(func(st *state) error {
		it, ok := st.shipmentItems[scan.ItemID]
		if !ok || it.ShipmentID != scan.ShipmentID {
			return fmt.Errorf("registrar escaneo: ítem %d: %w", scan.ItemID, domain.ErrNotFound)
		}
		for _, sc := range st.scans {
			if sc.ItemID == scan.ItemID {
				return nil
			}
		}
		scan.ID = st.id("delivery_scans")
		st.scans[scan.ID] = *scan
		created = true
		return nil
	})
	return created, err
}

func (r *ScanRepo) CountByShipment(_ context.Context, shipmentID int64) (int, error) {
	n := 0
	err := r.ss.read(func(st *state) error {
		for _, sc := range st.scans {
			if sc.ShipmentID == shipmentID {
				n++
			}
		}
		return nil
	})
	return n, err
}
