package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockAlertDTO producto cuyo disponible en la tienda está en o bajo el mínimo de su categoría.
type LowStockAlertDTO struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	CategoryCode      string          `json:"category_code"`
	StoreID           string          `json:"store_id"`
	Available         int64           `json:"available"`
	MinStock          int64           `json:"min_stock"`
	SuggestedOrderQty int64           `json:"suggested_order_qty"`  // 2 × MinStock
	EstimatedCost     decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty × costo promedio
}

// ExpiryAlertDTO registro con vencimiento dentro de la ventana de aviso. DaysToExpiry negativo = vencido.
type ExpiryAlertDTO struct {
	StockRecordID string    `json:"stock_record_id"`
	ProductID     string    `json:"product_id"`
	SKU           string    `json:"sku"`
	ProductName   string    `json:"product_name"`
	StoreID       string    `json:"store_id"`
	BatchCode     string    `json:"batch_code"`
	Quantity      int64     `json:"quantity"`
	ExpiryDate    time.Time `json:"expiry_date"`
	DaysToExpiry  int       `json:"days_to_expiry"`
}

// OverdueTransferDTO traslado enviado que superó el SLA de recepción.
type OverdueTransferDTO struct {
	TransferID  string        `json:"transfer_id"`
	Number      string        `json:"number"`
	FromStoreID string        `json:"from_store_id"`
	ToStoreID   string        `json:"to_store_id"`
	Status      string        `json:"status"`
	SentAt      time.Time     `json:"sent_at"`
	Overdue     time.Duration `json:"overdue_ns"`
}
