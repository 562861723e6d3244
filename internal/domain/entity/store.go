package entity

// Store tienda o bodega dueña de registros de stock (dato de referencia).
type Store struct {
	ID      string
	Code    string // prefijo del código de barras
	Name    string
	Address string
}
