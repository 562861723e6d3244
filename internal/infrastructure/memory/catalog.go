package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*Catalog)(nil)
	_ repository.StoreRepository    = (*StoreDirectory)(nil)
	_ repository.CategoryRepository = (*CategoryTable)(nil)
)

// Catalog catálogo de productos en memoria (solo lectura para el ledger).
type Catalog struct {
	mu       sync.RWMutex
	products map[string]entity.Product
}

// NewCatalog crea el catálogo con los productos dados.
func NewCatalog(products ...entity.Product) *Catalog {
	c := &Catalog{products: map[string]entity.Product{}}
	for _, p := range products {
		c.Put(p)
	}
	return c
}

// Put agrega o reemplaza un producto.
func (c *Catalog) Put(p entity.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *Catalog) GetByID(_ context.Context, id string) (*entity.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// StoreDirectory datos de referencia de tiendas en memoria.
type StoreDirectory struct {
	mu     sync.RWMutex
	stores map[string]entity.Store
}

// NewStoreDirectory crea el directorio con las tiendas dadas.
func NewStoreDirectory(stores ...entity.Store) *StoreDirectory {
	d := &StoreDirectory{stores: map[string]entity.Store{}}
	for _, s := range stores {
		d.Put(s)
	}
	return d
}

// Put agrega o reemplaza una tienda.
func (d *StoreDirectory) Put(s entity.Store) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stores[s.ID] = s
}

func (d *StoreDirectory) GetByID(_ context.Context, id string) (*entity.Store, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.stores[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// CategoryTable tabla de mínimos por categoría en memoria.
type CategoryTable struct {
	mu         sync.RWMutex
	categories map[string]entity.Category
}

// NewCategoryTable crea la tabla con las categorías dadas.
func NewCategoryTable(categories ...entity.Category) *CategoryTable {
	t := &CategoryTable{categories: map[string]entity.Category{}}
	for _, c := range categories {
		t.Put(c)
	}
	return t
}

// Put agrega o reemplaza una categoría.
func (t *CategoryTable) Put(c entity.Category) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.categories[c.Code] = c
}

func (t *CategoryTable) GetByCode(_ context.Context, code string) (*entity.Category, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.categories[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
