package entity

import (
	"strconv"
	"strings"
	"time"
)

// Product SKU de catálogo. Una vez referenciado no se modifica; solo se desactiva.
type Product struct {
	ID          int64
	SKU         string // único global
	Name        string
	UnitMeasure string
	Active      bool
	CreatedAt   time.Time
}

// MaxSKULength longitud máxima de un SKU derivado del nombre.
const MaxSKULength = 20

// DefaultUnitMeasure unidad de medida para productos creados al vuelo.
const DefaultUnitMeasure = "UND"

// SKUFromName deriva un SKU base a partir del nombre del producto:
// mayúsculas, espacios por guiones y recorte a MaxSKULength. Nombre vacío = "SKU".
func SKUFromName(name string) string {
	sku := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "-")
	if r := []rune(sku); len(r) > MaxSKULength {
		sku = string(r[:MaxSKULength])
	}
	if sku == "" {
		return "SKU"
	}
	return sku
}

// SKUCandidate devuelve el intento n (1 = base, 2 = base-2, ...).
func SKUCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
