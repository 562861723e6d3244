package entity

// Category categoría de productos con su stock mínimo (tabla de mínimos por categoría).
type Category struct {
	Code     string
	Name     string
	MinStock int64
}
