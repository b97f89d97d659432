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

var _ repository.LoadRepository = (*LoadRepo)(nil)

// LoadRepo cargas e ítems en memoria.
type LoadRepo struct{ ss session }

func NewLoadRepository(s *Store) *LoadRepo { return &LoadRepo{ss: session{s: s}} }

func (r *LoadRepo) Create(_ context.Context, l *entity.Load) error {
	return r.ss.read(func(st *state) error {
		if _, ok := st.clients[l.ClientID]; !ok {
			return fmt.Errorf("crear carga: cliente %d: %w", l.ClientID, domain.ErrNotFound)
		}
		if _, ok := st.suppliers[l.SupplierID]; !ok {
			return fmt.Errorf("crear carga: proveedor %d: %w", l.SupplierID, domain.ErrNotFound)
		}
		l.ID = st.id("loads")
		row := *l
		row.Items = nil
		st.loads[l.ID] = row
		return nil
	})
}

func (r *LoadRepo) GetByID(_ context.Context, id int64) (*entity.Load, error) {
	var out *entity.Load
	err := r.ss.read(func(st *state) error {
		out = st.loadWithItems(id)
		return nil
	})
	return out, err
}

// GetForUpdate el lock global del Store ya serializa la transacción.
func (r *LoadRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Load, error) {
	return r.GetByID(ctx, id)
}

func (r *LoadRepo) UpdateStatus(_ context.Context, id int64, status entity.LoadStatus) error {
	return r.ss.read(func(st *state) error {
		l, ok := st.loads[id]
		if !ok {
			return fmt.Errorf("actualizar carga %d: %w", id, domain.ErrNotFound)
		}
		l.Status = status
		l.UpdatedAt = time.Now()
		st.loads[id] = l
		return nil
	})
}

func (r *LoadRepo) CreateItem(_ context.Context, item *entity.LoadItem) error {
	return r.ss.read(func(st *state) error {
		if _, ok := st.loads[item.LoadID]; !ok {
			return fmt.Errorf("crear ítem: carga %d: %w", item.LoadID, domain.ErrNotFound)
		}
		if _, ok := st.products[item.ProductID]; !ok {
			return fmt.Errorf("crear ítem: producto %d: %w", item.ProductID, domain.ErrNotFound)
		}
		item.ID = st.id("load_items")
		st.loadItems[item.ID] = *item
		return nil
	})
}

func (r *LoadRepo) GetItem(_ context.Context, itemID int64) (*entity.LoadItem, error) {
	var out *entity.LoadItem
	err := r.ss.read(func(st *state) error {
		if it, ok := st.loadItems[itemID]; ok {
			out = st.enrichItem(it)
		}
		return nil
	})
	return out, err
}

func (r *LoadRepo) UpdateItemQuantity(_ context.Context, itemID int64, quantity int) error {
	return r.ss.read(func(st *state) error {
		it, ok := st.loadItems[itemID]
		if !ok {
			return fmt.Errorf("actualizar ítem %d: %w", itemID, domain.ErrNotFound)
		}
		it.Quantity = quantity
		st.loadItems[itemID] = it
		return nil
	})
}

// DeleteItem borra ítem y unidades; falla como la FK RESTRICT si alguna unidad está en un envío.
func (r *LoadRepo) DeleteItem(_ context.Context, itemID int64) error {
	return r.ss.read(func(st *state) error {
		if _, ok := st.loadItems[itemID]; !ok {
			return fmt.Errorf("eliminar ítem %d: %w", itemID, domain.ErrNotFound)
		}
		if st.referencedUnits(itemID) > 0 {
			return domain.ErrUnitInUse
		}
		for id, u := range st.units {
			if u.LoadItemID == itemID {
				delete(st.units, id)
			}
		}
		delete(st.loadItems, itemID)
		return nil
	})
}

func (st *state) loadWithItems(id int64) *entity.Load {
	l, ok := st.loads[id]
	if !ok {
		return nil
	}
	for _, it := range st.loadItems {
		if it.LoadID == id {
			l.Items = append(l.Items, st.enrichItem(it))
		}
	}
	sort.Slice(l.Items, func(i, j int) bool { return l.Items[i].ID < l.Items[j].ID })
	return &l
}

func (st *state) enrichItem(it entity.LoadItem) *entity.LoadItem {
	if p, ok := st.products[it.ProductID]; ok {
		it.ProductSKU = p.SKU
		it.ProductName = p.Name
	}
	it.UnitCount = 0
	for _, u := range st.units {
		if u.LoadItemID == it.ID {
			it.UnitCount++
		}
	}
	return &it
}

func (st *state) referencedUnits(loadItemID int64) int {
	n := 0
	for _, si := range st.shipmentItems {
		if u, ok := st.units[si.UnitID]; ok && u.LoadItemID == loadItemID {
			n++
		}
	}
	return n
}
