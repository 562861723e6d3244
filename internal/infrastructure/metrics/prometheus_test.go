package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func TestRecorder_Movimientos(t *testing.T) {
	r := New(DefaultConfig("test"))
	r.MovementCommitted(entity.MovementPurchaseIn, 10)
	r.MovementCommitted(entity.MovementSaleOut, -3)
	r.MovementCommitted(entity.MovementSaleOut, -2)
	r.MovementCommitted(entity.MovementReserved, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.movementsTotal.WithLabelValues("purchase-in")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.movementsTotal.WithLabelValues("sale-out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.movementsTotal.WithLabelValues("reserved")))
}

func TestRecorder_RechazosPorCodigo(t *testing.T) {
	r := New(DefaultConfig("test"))
	r.OperationRejected("send_transfer", fmt.Errorf("%w: sin stock", domain.ErrInsufficientStock))
	r.OperationRejected("send_transfer", fmt.Errorf("%w: estado", domain.ErrInvalidState))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejectionsTotal.WithLabelValues("send_transfer", "INSUFFICIENT_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejectionsTotal.WithLabelValues("send_transfer", "INVALID_STATE")))
}

func TestRecorder_TrasladosYAlertas(t *testing.T) {
	r := New(DefaultConfig("test"))
	r.TransferStatusChanged(entity.TransferSent)
	r.MismatchDetected(-4)
	r.SetOverdueTransfers(3)
	r.SetAlerts("low_stock", "store-a", 2)
	r.JobRun("overdue_transfers", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.transferStatus.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mismatchesTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.overdueTransfers))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.alertsOutstanding.WithLabelValues("low_stock", "store-a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.schedulerRunsTotal.WithLabelValues("overdue_transfers", "ok")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New(DefaultConfig("test"))
	r.MovementCommitted(entity.MovementPurchaseIn, 1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ledger_movements_total"))
}
