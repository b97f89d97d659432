package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var _ repository.UnitRepository = (*UnitRepo)(nil)

// UnitRepo unidades en memoria; código de barras único.
type UnitRepo struct{ ss session }

func NewUnitRepository(s *Store) *UnitRepo { return &UnitRepo{ss: session{s: s}} }

func (r *UnitRepo) Create(_ context.Context, u *entity.Unit) error {
	return r.ss.read(func(st *state) error {
		if _, ok := st.loadItems[u.LoadItemID]; !ok {
			return fmt.Errorf("crear unidad: ítem %d: %w", u.LoadItemID, domain.ErrNotFound)
		}
		for _, existing := range st.units {
			if existing.Barcode == u.Barcode {
				return fmt.Errorf("%w: código %s", domain.ErrDuplicate, u.Barcode)
			}
		}
		u.ID = st.id("units")
		st.units[u.ID] = bareUnit(*u)
		return nil
	})
}

func (r *UnitRepo) CountByLoad(_ context.Context, loadID int64) (int, error) {
	n := 0
	err := r.ss.read(func(st *state) error {
		for _, u := range st.units {
			if it, ok := st.loadItems[u.LoadItemID]; ok && it.LoadID == loadID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *UnitRepo) GetByBarcode(_ context.Context, barcode string) (*entity.Unit, error) {
	var out *entity.Unit
	err := r.ss.read(func(st *state) error {
		for _, u := range st.units {
			if u.Barcode == barcode {
				out = st.joinUnit(u)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UnitRepo) GetByBarcodeForUpdate(ctx context.Context, barcode string) (*entity.Unit, error) {
	return r.GetByBarcode(ctx, barcode)
}

func (r *UnitRepo) ListByLoad(_ context.Context, loadID, itemID int64) ([]*entity.Unit, error) {
	var out []*entity.Unit
	err := r.ss.read(func(st *state) error {
		for _, u := range st.units {
			it, ok := st.loadItems[u.LoadItemID]
			if !ok || it.LoadID != loadID || (itemID != 0 && it.ID != itemID) {
				continue
			}
			out = append(out, st.joinUnit(u))
		}
		return nil
	})
	sortUnits(out)
	return out, err
}

func (r *UnitRepo) ListAvailableByClient(_ context.Context, clientID int64) ([]*entity.Unit, error) {
	var out []*entity.Unit
	err := r.ss.read(func(st *state) error {
		for _, u := range st.units {
			if u.Status != entity.UnitAvailable {
				continue
			}
			j := st.joinUnit(u)
			l := st.loads[j.LoadID]
			if j.ClientID != clientID || (l.Status != entity.LoadLabeled && l.Status != entity.LoadStored) {
				continue
			}
			out = append(out, j)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].LoadID != out[j].LoadID {
			return out[i].LoadID < out[j].LoadID
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *UnitRepo) UpdateStatus(_ context.Context, ids []int64, status entity.UnitStatus) error {
	return r.ss.read(func(st *state) error {
		now := time.Now()
		for _, id := range ids {
			u, ok := st.units[id]
			if !ok {
				return fmt.Errorf("actualizar unidad %d: %w", id, domain.ErrNotFound)
			}
			u.Status = status
			u.UpdatedAt = now
			st.units[id] = u
		}
		return nil
	})
}

func (r *UnitRepo) CountReferencedByItem(_ context.Context, loadItemID int64) (int, error) {
	n := 0
	err := r.ss.read(func(st *state) error {
		n = st.referencedUnits(loadItemID)
		return nil
	})
	return n, err
}

// bareUnit descarta los campos de join antes de guardar.
func bareUnit(u entity.Unit) entity.Unit {
	return entity.Unit{
		ID:         u.ID,
		LoadItemID: u.LoadItemID,
		Barcode:    u.Barcode,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func (st *state) joinUnit(u entity.Unit) *entity.Unit {
	if it, ok := st.loadItems[u.LoadItemID]; ok {
		u.LoadID = it.LoadID
		u.ProductID = it.ProductID
		if l, ok := st.loads[it.LoadID]; ok {
			u.ClientID = l.ClientID
			u.Remision = l.Remision
		}
		if p, ok := st.products[it.ProductID]; ok {
			u.ProductSKU = p.SKU
			u.ProductName = p.Name
		}
	}
	return &u
}

func sortUnits(units []*entity.Unit) {
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
}
