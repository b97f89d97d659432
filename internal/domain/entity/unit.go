package entity

import (
	"fmt"
	"time"
)

// UnitStatus ciclo de vida de una unidad física.
type UnitStatus string

const (
	UnitAvailable  UnitStatus = "disponible"
	UnitReserved   UnitStatus = "reservada"
	UnitDispatched UnitStatus = "despachada"
	UnitBlocked    UnitStatus = "bloqueada"
)

var unitTransitions = map[UnitStatus][]UnitStatus{
	UnitAvailable:  {UnitReserved, UnitBlocked},
	UnitReserved:   {UnitAvailable, UnitDispatched},
	UnitBlocked:    {UnitAvailable},
	UnitDispatched: nil,
}

func (s UnitStatus) IsValid() bool {
	_, ok := unitTransitions[s]
	return ok
}

// CanTransitionTo indica si el paso s -> next está permitido.
func (s UnitStatus) CanTransitionTo(next UnitStatus) bool {
	for _, n := range unitTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Unit unidad etiquetada con código de barras único e inmutable.
type Unit struct {
	ID         int64
	LoadItemID int64
	Barcode    string
	Status     UnitStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Desnormalizados al leer (join con la carga y el producto).
	LoadID      int64
	ClientID    int64
	ProductID   int64
	ProductSKU  string
	ProductName string
	Remision    string
}

// TransitionTo aplica el cambio de estado o devuelve error si no es válido.
func (u *Unit) TransitionTo(next UnitStatus) error {
	if !u.Status.CanTransitionTo(next) {
		return fmt.Errorf("unidad %s: %s -> %s no permitido", u.Barcode, u.Status, next)
	}
	u.Status = next
	return nil
}
