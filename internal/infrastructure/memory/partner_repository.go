package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/logistica-api/internal/domain"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
)

var (
	_ repository.ClientRepository   = (*ClientRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
)

// ClientRepo clientes en memoria.
type ClientRepo struct{ ss session }

// NewClientRepository repo fuera de transacción.
func NewClientRepository(s *Store) *ClientRepo { return &ClientRepo{ss: session{s: s}} }

func (r *ClientRepo) GetByID(_ context.Context, id int64) (*entity.Client, error) {
	var out *entity.Client
	err := r.ss.read(func(st *state) error {
		if c, ok := st.clients[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// SupplierRepo proveedores en memoria.
type SupplierRepo struct{ ss session }

func NewSupplierRepository(s *Store) *SupplierRepo { return &SupplierRepo{ss: session{s: s}} }

func (r *SupplierRepo) GetByID(_ context.Context, id int64) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.ss.read(func(st *state) error {
		if c, ok := st.suppliers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// ProductRepo productos en memoria; SKU único.
type ProductRepo struct{ ss session }

func NewProductRepository(s *Store) *ProductRepo { return &ProductRepo{ss: session{s: s}} }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.ss.read(func(st *state) error {
		for _, existing := range st.products {
			if strings.EqualFold(existing.SKU, p.SKU) {
				return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
			}
		}
		p.ID = st.id("products")
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.ss.read(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.ss.read(func(st *state) error {
		for _, p := range st.products {
			if strings.EqualFold(p.SKU, sku) {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}
