// seed_catalog genera un script SQL para poblar el catálogo de productos
// a partir de la exportación CSV del ERP de los clientes (sku;nombre;unidad).
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_products.sql
package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type product struct {
	sku, name, measure string
}

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}

	products, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_products.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	writeSQL(w, products)
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos\n", outPath, len(products))
}

// parseCatalog acepta UTF-8 o ISO-8859-1 (exportaciones de Excel en español).
// La primera fila es encabezado. SKU repetidos: gana la última fila.
func parseCatalog(raw []byte) ([]product, error) {
	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}
	r := csv.NewReader(src)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catálogo vacío")
		}
		return nil, err
	}

	bySKU := make(map[string]product)
	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("línea %d: se esperan al menos sku y nombre", line)
		}
		p := product{
			sku:     strings.ToUpper(strings.TrimSpace(rec[0])),
			name:    strings.TrimSpace(rec[1]),
			measure: "UND",
		}
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			p.measure = strings.ToUpper(strings.TrimSpace(rec[2]))
		}
		if p.sku == "" || p.name == "" {
			continue
		}
		bySKU[p.sku] = p
	}

	out := make([]product, 0, len(bySKU))
	for _, p := range bySKU {
		out = append(out, p)
	}
	// Ordenar por SKU para salida estable
	sort.Slice(out, func(i, j int) bool { return out[i].sku < out[j].sku })
	return out, nil
}

func writeSQL(w io.Writer, products []product) {
	fmt.Fprintln(w, "-- Catálogo de productos")
	fmt.Fprintln(w, "-- Generado por cmd/seed_catalog")
	fmt.Fprintln(w)
	for _, p := range products {
		fmt.Fprintf(w, "INSERT INTO products (sku, name, unit_measure) VALUES ('%s', '%s', '%s')\n",
			escapeSQL(p.sku), escapeSQL(p.name), escapeSQL(p.measure))
		fmt.Fprintln(w, "ON CONFLICT ((UPPER(sku))) DO UPDATE SET name = EXCLUDED.name, unit_measure = EXCLUDED.unit_measure;")
	}
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
