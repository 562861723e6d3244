package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Espacio de nombres de los IDs deterministas: el mismo código genera siempre el mismo ID,
// así el script se puede volver a ejecutar sin duplicar filas.
var (
	storeNamespace   = uuid.NewSHA1(uuid.NameSpaceURL, []byte("inventario-ledger/stores"))
	productNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("inventario-ledger/products"))
)

type catalog struct {
	stores     []entity.Store
	categories []entity.Category
	products   []entity.Product
}

// parseCatalog interpreta el CSV. Si no es UTF-8 válido se decodifica como ISO-8859-1.
func parseCatalog(raw []byte) (*catalog, error) {
	var in io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		in = transform.NewReader(in, charmap.ISO8859_1.NewDecoder())
	}
	r := csv.NewReader(in)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	cat := &catalog{}
	seen := make(map[string]bool)
	line := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if len(rec) == 0 || strings.HasPrefix(strings.TrimSpace(rec[0]), "#") {
			continue
		}
		kind := strings.ToLower(strings.TrimSpace(rec[0]))
		if kind == "tipo" {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("línea %d: se esperan al menos 3 columnas", line)
		}
		code, name := strings.TrimSpace(rec[1]), strings.TrimSpace(rec[2])
		extra := ""
		if len(rec) > 3 {
			extra = strings.TrimSpace(rec[3])
		}
		if code == "" || name == "" {
			return nil, fmt.Errorf("línea %d: código y nombre son obligatorios", line)
		}
		if seen[kind+"/"+code] {
			return nil, fmt.Errorf("línea %d: %s %s repetido", line, kind, code)
		}
		seen[kind+"/"+code] = true

		switch kind {
		case "store":
			cat.stores = append(cat.stores, entity.Store{
				ID: uuid.NewSHA1(storeNamespace, []byte(code)).String(), Code: code, Name: name, Address: extra,
			})
		case "category":
			minStock := int64(0)
			if extra != "" {
				minStock, err = strconv.ParseInt(extra, 10, 64)
				if err != nil || minStock < 0 {
					return nil, fmt.Errorf("línea %d: stock mínimo inválido %q", line, extra)
				}
			}
			cat.categories = append(cat.categories, entity.Category{Code: code, Name: name, MinStock: minStock})
		case "product":
			cat.products = append(cat.products, entity.Product{
				ID: uuid.NewSHA1(productNamespace, []byte(code)).String(), SKU: code, Name: name, CategoryCode: extra,
			})
		default:
			return nil, fmt.Errorf("línea %d: tipo desconocido %q", line, rec[0])
		}
	}
	sort.Slice(cat.stores, func(i, j int) bool { return cat.stores[i].Code < cat.stores[j].Code })
	sort.Slice(cat.categories, func(i, j int) bool { return cat.categories[i].Code < cat.categories[j].Code })
	sort.Slice(cat.products, func(i, j int) bool { return cat.products[i].SKU < cat.products[j].SKU })
	return cat, nil
}

// writeSQL escribe los INSERT idempotentes (ON CONFLICT ... DO UPDATE).
func writeSQL(w io.Writer, cat *catalog) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de referencia del ledger\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	if len(cat.stores) > 0 {
		b.WriteString("-- 1. Tiendas\n")
		b.WriteString("INSERT INTO stores (id, code, name, address) VALUES\n")
		for i, s := range cat.stores {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s')%s\n", s.ID, escapeSQL(s.Code), escapeSQL(s.Name), escapeSQL(s.Address), sep(i, len(cat.stores)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name, address = EXCLUDED.address;\n\n")
	}
	if len(cat.categories) > 0 {
		b.WriteString("-- 2. Categorías y stock mínimo\n")
		b.WriteString("INSERT INTO categories (code, name, min_stock) VALUES\n")
		for i, c := range cat.categories {
			fmt.Fprintf(&b, "  ('%s', '%s', %d)%s\n", escapeSQL(c.Code), escapeSQL(c.Name), c.MinStock, sep(i, len(cat.categories)))
		}
		b.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, min_stock = EXCLUDED.min_stock;\n\n")
	}
	if len(cat.products) > 0 {
		b.WriteString("-- 3. Productos\n")
		b.WriteString("INSERT INTO products (id, sku, name, category_code) VALUES\n")
		for i, p := range cat.products {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s')%s\n", p.ID, escapeSQL(p.SKU), escapeSQL(p.Name), escapeSQL(p.CategoryCode), sep(i, len(cat.products)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name, category_code = EXCLUDED.category_code;\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sep(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
