package entity

// Product entrada del catálogo (solo lectura para el ledger).
// SKU se usa en la composición del código de barras; CategoryCode en las alertas de stock bajo.
type Product struct {
	ID           string
	SKU          string
	Name         string
	CategoryCode string
}
