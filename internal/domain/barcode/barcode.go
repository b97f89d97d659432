// Package barcode genera y valida los códigos de barras de las unidades.
//
// Formato: CL<cliente>CG<carga><token><dígito>, donde token son 13 símbolos
// del alfabeto Crockford (sin I, L, O, U) y dígito es Luhn mod 10 sobre
// cliente ‖ carga ‖ fnv32a(token).
//
// La secuencia de la unidad dentro de la carga solo se mezcla en el token y no
// entra al dígito: el código no la transporta, y así Parse verifica el dígito
// con lo que trae el código impreso, sin consultar la unidad.
package barcode

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"regexp"
	"strconv"
	"time"
)

const (
	// Alphabet símbolos del token (32, sin caracteres ambiguos).
	Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	// TokenLength símbolos del token.
	TokenLength = 13
	// MaxAttempts reintentos ante colisión en persistencia.
	MaxAttempts = 5
)

var codeRe = regexp.MustCompile(`^CL(\d+)CG(\d+)([0-9A-HJKMNP-TV-Z]{13})(\d)$`)

// Clock fuente de tiempo inyectable.
type Clock func() time.Time

// Generator produce códigos. Seguro para uso concurrente si rnd lo es.
type Generator struct {
	now Clock
	rnd io.Reader
}

// Option configura el generador.
type Option func(*Generator)

// WithClock reemplaza el reloj (tests).
func WithClock(c Clock) Option { return func(g *Generator) { g.now = c } }

// WithRandom reemplaza la fuente aleatoria (tests).
func WithRandom(r io.Reader) Option { return func(g *Generator) { g.rnd = r } }

// NewGenerator crea un generador con reloj del sistema y crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now, rnd: rand.Reader}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate arma un código para la unidad número seq de la carga.
func (g *Generator) Generate(clientID, loadID int64, seq int) (string, error) {
	if clientID <= 0 || loadID <= 0 || seq < 0 {
		return "", fmt.Errorf("barcode: parámetros inválidos cliente=%d carga=%d seq=%d", clientID, loadID, seq)
	}
	var buf [4]byte
	if _, err := io.ReadFull(g.rnd, buf[:]); err != nil {
		return "", fmt.Errorf("barcode: leer aleatorio: %w", err)
	}
	rnd := binary.BigEndian.Uint32(buf[:])
	ms := uint64(g.now().UnixMilli())
	entropy := (ms&0xFFFFFFFF)<<32 | uint64(rnd^uint32(seq)*2654435761)

	token := encode(entropy)
	check := luhnDigit(payload(clientID, loadID, token))
	return fmt.Sprintf("CL%dCG%d%s%d", clientID, loadID, token, check), nil
}

// Parsed partes de un código válido.
type Parsed struct {
	ClientID int64
	LoadID   int64
	Token    string
	Check    int
}

// Parse separa el código en sus partes y verifica el dígito de control.
func Parse(code string) (*Parsed, error) {
	m := codeRe.FindStringSubmatch(code)
	if m == nil {
		return nil, fmt.Errorf("barcode: formato inválido %q", code)
	}
	clientID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("barcode: cliente inválido: %w", err)
	}
	loadID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("barcode: carga inválida: %w", err)
	}
	p := &Parsed{ClientID: clientID, LoadID: loadID, Token: m[3], Check: int(m[4][0] - '0')}
	if luhnDigit(payload(clientID, loadID, p.Token)) != p.Check {
		return nil, fmt.Errorf("barcode: dígito de control no coincide en %q", code)
	}
	return p, nil
}

// Validate true si el código tiene formato y dígito correctos.
func Validate(code string) bool {
	_, err := Parse(code)
	return err == nil
}

func payload(clientID, loadID int64, token string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return strconv.FormatInt(clientID, 10) + strconv.FormatInt(loadID, 10) + strconv.FormatUint(uint64(h.Sum32()), 10)
}

// encode convierte 64 bits en TokenLength símbolos (big endian, 5 bits por símbolo).
func encode(v uint64) string {
	out := make([]byte, TokenLength)
	for i := TokenLength - 1; i >= 0; i-- {
		out[i] = Alphabet[v&0x1F]
		v >>= 5
	}
	return string(out)
}

// LuhnDigit dígito de control Luhn mod 10 para una cadena de dígitos.
func LuhnDigit(digits string) int { return luhnDigit(digits) }

func luhnDigit(digits string) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}
