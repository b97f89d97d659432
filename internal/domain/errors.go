package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrOwnershipMismatch = errors.New("la unidad pertenece a otro cliente")
	ErrNotAvailable      = errors.New("la unidad no está disponible")
	ErrAlreadyAssigned   = errors.New("la unidad ya está asignada a otro envío activo")
	ErrDuplicateInBatch  = errors.New("código repetido en el lote")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrValidation        = errors.New("entrada inválida")
	ErrNotInShipment     = errors.New("el código no pertenece al envío")
	ErrForbidden         = errors.New("acceso denegado")
	ErrBarcodeExhausted  = errors.New("no fue posible generar un código de barras único")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnitInUse         = fmt.Errorf("%w: unidades referenciadas por envíos", ErrInvalidTransition)
)

// UnitError identifica la unidad (por código de barras) que causó el fallo.
// Status se llena solo para ErrNotAvailable.
type UnitError struct {
	Barcode string
	Status  string
	Err     error
}

func (e *UnitError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %v (estado %s)", e.Barcode, e.Err, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Barcode, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// BatchError agrupa todos los fallos de una operación por lote.
// errors.Is(err, ErrNotAvailable) es true si alguno de los fallos lo es.
type BatchError struct {
	Failures []*UnitError
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("lote rechazado (%d fallos): %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Barcodes devuelve los códigos que fallaron, en orden de entrada.
func (e *BatchError) Barcodes() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Barcode)
	}
	return out
}

// Add registra un fallo.
func (e *BatchError) Add(barcode, status string, err error) {
	e.Failures = append(e.Failures, &UnitError{Barcode: barcode, Status: status, Err: err})
}

// OrNil devuelve nil si no hubo fallos.
func (e *BatchError) OrNil() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e
}
