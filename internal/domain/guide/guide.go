package guide

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/logistica-api/internal/domain"
)

const (
	prefixLen   = 3
	filler      = "X"
	suffixMin   = 100000
	suffixRange = 900000
	// MaxAttempts intentos antes de rendirse.
	MaxAttempts = 20
)

var upper = cases.Upper(language.Spanish)

// Prefix primeras 3 letras del nombre del cliente en mayúsculas, espacios por X y relleno con X.
func Prefix(clientName string) string {
	name := upper.String(strings.TrimSpace(clientName))
	r := []rune(name)
	if len(r) > prefixLen {
		r = r[:prefixLen]
	}
	p := strings.ReplaceAll(string(r), " ", filler)
	for n := len([]rune(p)); n < prefixLen; n++ {
		p += filler
	}
	return p
}

// ExistsFunc consulta si un número de guía ya está tomado.
type ExistsFunc func(ctx context.Context, guide string) (bool, error)

// SuffixFunc fuente del sufijo numérico [100000, 999999].
type SuffixFunc func() (int, error)

// Generator genera números de guía únicos contra el almacenamiento.
type Generator struct {
	suffix SuffixFunc
}

// NewGenerator usa crypto/rand si suffix es nil.
func NewGenerator(suffix SuffixFunc) *Generator {
	if suffix == nil {
		suffix = randomSuffix
	}
	return &Generator{suffix: suffix}
}

// Candidate arma un número sin verificar unicidad.
func (g *Generator) Candidate(clientName string) (string, error) {
	n, err := g.suffix()
	if err != nil {
		return "", err
	}
	if n < suffixMin || n >= suffixMin+suffixRange {
		return "", fmt.Errorf("guide: sufijo fuera de rango %d", n)
	}
	return fmt.Sprintf("%s%d", Prefix(clientName), n), nil
}

// Next devuelve un número que exists reporta libre.
func (g *Generator) Next(ctx context.Context, clientName string, exists ExistsFunc) (string, error) {
	for i := 0; i < MaxAttempts; i++ {
		c, err := g.Candidate(clientName)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, c)
		if err != nil {
			return "", err
		}
		if !taken {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: número de guía tras %d intentos", domain.ErrDuplicate, MaxAttempts)
}

func randomSuffix() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(suffixRange))
	if err != nil {
		return 0, fmt.Errorf("guide: aleatorio: %w", err)
	}
	return suffixMin + int(n.Int64()), nil
}
