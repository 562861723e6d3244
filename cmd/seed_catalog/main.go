// seed_catalog genera el script SQL que puebla las tablas de referencia del ledger
// (tiendas, categorías con su stock mínimo y productos) a partir de un CSV exportado del ERP.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.csv] [salida.sql]
// Por defecto lee catalogo.csv del directorio actual y escribe
// internal/infrastructure/postgres/seed_catalog.sql.
//
// Formato (separador ';', codificación ISO-8859-1 o UTF-8):
//
//	tipo;codigo;nombre;extra
//	store;T01;Centro;Calle 10 # 4-20
//	category;LAC;Lácteos;10
//	product;LECHE-1L;Leche entera 1L;LAC
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "seed_catalog.sql")
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	cat, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, cat); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d tiendas, %d categorías, %d productos\n",
		outPath, len(cat.stores), len(cat.categories), len(cat.products))
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
