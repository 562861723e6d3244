package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// AlertUseCase genera las alertas de stock bajo y de vencimiento de una tienda. Solo lectura.
type AlertUseCase struct {
	deps Deps
}

// NewAlertUseCase construye el caso de uso de alertas.
func NewAlertUseCase(deps Deps) *AlertUseCase {
	return &AlertUseCase{deps: deps.withDefaults()}
}

// productAgg acumulado por producto dentro de la tienda.
type productAgg struct {
	available int64
	quantity  int64
	cost      decimal.Decimal // Σ cantidad × costo promedio
}

// LowStockAlerts devuelve los productos cuyo disponible total en la tienda está en o bajo el mínimo
// de su categoría (o el mínimo por defecto). Productos con mínimo <= 0 no generan alerta.
func (uc *AlertUseCase) LowStockAlerts(ctx context.Context, storeID string) ([]dto.LowStockAlertDTO, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: tienda requerida", domain.ErrInvalidInput)
	}

	// 1. Disponible por producto (suma de todos los lotes)
	records, err := uc.queryStore(ctx, repository.StockFilter{StoreID: storeID})
	if err != nil {
		return nil, err
	}
	byProduct := make(map[string]*productAgg)
	order := make([]string, 0)
	for _, rec := range records {
		agg, ok := byProduct[rec.Key.ProductID]
		if !ok {
			agg = &productAgg{cost: decimal.Zero}
			byProduct[rec.Key.ProductID] = agg
			order = append(order, rec.Key.ProductID)
		}
		agg.available += rec.Available()
		agg.quantity += rec.Quantity
		agg.cost = agg.cost.Add(rec.AvgCost.Mul(decimal.NewFromInt(rec.Quantity)))
	}

	// 2. Comparar contra la tabla de mínimos por categoría
	alerts := make([]dto.LowStockAlertDTO, 0)
	for _, productID := range order {
		agg := byProduct[productID]
		product, err := uc.deps.Products.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		alert := dto.LowStockAlertDTO{ProductID: productID, StoreID: storeID, Available: agg.available}
		if product != nil {
			alert.SKU = product.SKU
			alert.ProductName = product.Name
			alert.CategoryCode = product.CategoryCode
		}
		minStock, err := uc.minStock(ctx, alert.CategoryCode)
		if err != nil {
			return nil, err
		}
		if minStock <= 0 || agg.available > minStock {
			continue
		}
		alert.MinStock = minStock
		alert.SuggestedOrderQty = 2 * minStock
		unitCost := decimal.Zero
		if agg.quantity > 0 {
			unitCost = agg.cost.Div(decimal.NewFromInt(agg.quantity))
		}
		alert.EstimatedCost = unitCost.Mul(decimal.NewFromInt(alert.SuggestedOrderQty)).Round(2)
		alerts = append(alerts, alert)
	}

	// 3. Ordenar: mayor déficit relativo primero, luego SKU
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		defA := a.MinStock - a.Available
		defB := b.MinStock - b.Available
		if defA != defB {
			return defA > defB
		}
		return a.SKU < b.SKU
	})
	return alerts, nil
}

// ExpiryAlerts registros con cantidad > 0 que vencen dentro de windowDays (0 usa la ventana configurada).
// Incluye los ya vencidos (días negativos). Orden ascendente por días al vencimiento.
func (uc *AlertUseCase) ExpiryAlerts(ctx context.Context, storeID string, windowDays int) ([]dto.ExpiryAlertDTO, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: tienda requerida", domain.ErrInvalidInput)
	}
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: ventana de días negativa", domain.ErrInvalidInput)
	}
	if windowDays == 0 {
		windowDays = uc.deps.Settings.ExpiryWarningDays
	}
	records, err := uc.queryStore(ctx, repository.StockFilter{StoreID: storeID, WithExpiry: true})
	if err != nil {
		return nil, err
	}
	now := uc.deps.Now()
	alerts := make([]dto.ExpiryAlertDTO, 0)
	for _, rec := range records {
		days, ok := rec.DaysToExpiry(now)
		if !ok || rec.Quantity <= 0 || days > windowDays {
			continue
		}
		alert := dto.ExpiryAlertDTO{
			StockRecordID: rec.ID,
			ProductID:     rec.Key.ProductID,
			StoreID:       rec.Key.StoreID,
			BatchCode:     rec.Key.BatchCode,
			Quantity:      rec.Quantity,
			ExpiryDate:    *rec.ExpiryDate,
			DaysToExpiry:  days,
		}
		if p, err := uc.deps.Products.GetByID(ctx, rec.Key.ProductID); err == nil && p != nil {
			alert.SKU, alert.ProductName = p.SKU, p.Name
		}
		alerts = append(alerts, alert)
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].DaysToExpiry < alerts[j].DaysToExpiry })
	return alerts, nil
}

// OverdueTransferAlerts traslados que superaron el SLA de recepción, como DTO.
func (uc *AlertUseCase) OverdueTransferAlerts(ctx context.Context, transfers *TransferUseCase) ([]dto.OverdueTransferDTO, error) {
	now := uc.deps.Now()
	overdue, err := transfers.OverdueTransfers(ctx, now)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OverdueTransferDTO, 0, len(overdue))
	for _, t := range overdue {
		out = append(out, dto.OverdueTransferDTO{
			TransferID:  t.ID,
			Number:      t.Number,
			FromStoreID: t.FromStoreID,
			ToStoreID:   t.ToStoreID,
			Status:      string(t.Status),
			SentAt:      *t.SentAt,
			Overdue:     now.Sub(t.SentAt.Add(uc.deps.Settings.TransferSLA)).Truncate(time.Minute),
		})
	}
	return out, nil
}

func (uc *AlertUseCase) minStock(ctx context.Context, categoryCode string) (int64, error) {
	if categoryCode != "" && uc.deps.Categories != nil {
		cat, err := uc.deps.Categories.GetByCode(ctx, categoryCode)
		if err != nil {
			return 0, err
		}
		if cat != nil {
			return cat.MinStock, nil
		}
	}
	return uc.deps.Settings.DefaultMinStock, nil
}

func (uc *AlertUseCase) queryStore(ctx context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		list, err := r.Stock.Query(ctx, f)
		out = list
		return err
	})
	return out, err
}
