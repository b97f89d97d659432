package memory

import (
	"time"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// AddClient registra un cliente (datos de referencia) y devuelve su ID.
func (s *Store) AddClient(name, nit string, active bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.data.id("clients")
	s.data.clients[id] = entity.Client{ID: id, Name: name, NIT: nit, Active: active, CreatedAt: time.Now()}
	return id
}

// AddSupplier registra un proveedor y devuelve su ID.
func (s *Store) AddSupplier(name, nit string, active bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.data.id("suppliers")
	s.data.suppliers[id] = entity.Supplier{ID: id, Name: name, NIT: nit, Active: active, CreatedAt: time.Now()}
	return id
}

// AddProduct registra un producto activo y devuelve su ID.
func (s *Store) AddProduct(sku, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.data.id("products")
	s.data.products[id] = entity.Product{ID: id, SKU: sku, Name: name, UnitMeasure: entity.DefaultUnitMeasure, Active: true, CreatedAt: time.Now()}
	return id
}

// SetProductActive activa o desactiva un producto.
func (s *Store) SetProductActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.data.products[id]; ok {
		p.Active = active
		s.data.products[id] = p
	}
}

// SetClientActive activa o desactiva un cliente.
func (s *Store) SetClientActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.data.clients[id]; ok {
		c.Active = active
		s.data.clients[id] = c
	}
}

// UnitStatus estado actual de una unidad por código; "" si no existe.
func (s *Store) UnitStatus(barcode string) entity.UnitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.units {
		if u.Barcode == barcode {
			return u.Status
		}
	}
	return ""
}

// ScanCount total de escaneos registrados.
func (s *Store) ScanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.scans)
}

// SeedDemo carga datos mínimos para STORAGE_DRIVER=memory.
func (s *Store) SeedDemo() {
	s.AddClient("Acme Ltda", "900123456-7", true)
	s.AddClient("Bodegas del Sur", "800987654-3", true)
	s.AddSupplier("Importadora Andina", "901555111-2", true)
	s.AddProduct("CAJA-STD", "Caja estándar")
}
