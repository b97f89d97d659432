// Package memory implementa los puertos de persistencia en memoria.
// Aplica las mismas restricciones de unicidad que el esquema PostgreSQL
// y revierte el estado completo si una transacción falla.
package memory

import (
	"sync"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	data *state
}

type state struct {
	nextID map[string]int64

	clients       map[int64]entity.Client
	suppliers     map[int64]entity.Supplier
	products      map[int64]entity.Product
	loads         map[int64]entity.Load
	loadItems     map[int64]entity.LoadItem
	units         map[int64]entity.Unit
	shipments     map[int64]entity.Shipment
	shipmentItems map[int64]entity.ShipmentItem
	scans         map[int64]entity.DeliveryScan
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

func newState() *state {
	return &state{
		nextID:        map[string]int64{},
		clients:       map[int64]entity.Client{},
		suppliers:     map[int64]entity.Supplier{},
		products:      map[int64]entity.Product{},
		loads:         map[int64]entity.Load{},
		loadItems:     map[int64]entity.LoadItem{},
		units:         map[int64]entity.Unit{},
		shipments:     map[int64]entity.Shipment{},
		shipmentItems: map[int64]entity.ShipmentItem{},
		scans:         map[int64]entity.DeliveryScan{},
	}
}

func (st *state) id(table string) int64 {
	st.nextID[table]++
	return st.nextID[table]
}

// clone copia superficial por tabla; las filas son valores, así que basta.
func (st *state) clone() *state {
	c := newState()
	for k, v := range st.nextID {
		c.nextID[k] = v
	}
	copyMap(c.clients, st.clients)
	copyMap(c.suppliers, st.suppliers)
	copyMap(c.products, st.products)
	copyMap(c.loads, st.loads)
	copyMap(c.loadItems, st.loadItems)
	copyMap(c.units, st.units)
	copyMap(c.shipments, st.shipments)
	copyMap(c.shipmentItems, st.shipmentItems)
	copyMap(c.scans, st.scans)
	return c
}

func copyMap[V any](dst, src map[int64]V) {
	for k, v := range src {
		dst[k] = v
	}
}

// session da acceso al estado: fuera de una transacción toma el lock por llamada,
// dentro de una transacción el runner ya lo tiene.
type session struct {
	s    *Store
	inTx bool
}

func (ss session) read(fn func(st *state) error) error {
	if !ss.inTx {
		ss.s.mu.Lock()
		defer ss.s.mu.Unlock()
	}
	return fn(ss.s.data)
}
