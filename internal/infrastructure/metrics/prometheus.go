// Package metrics publica las señales de negocio del ledger en Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Config namespace y servicio de las métricas.
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig configuración por defecto para el servicio.
func DefaultConfig(serviceName string) Config {
	return Config{ServiceName: serviceName, Namespace: "ledger"}
}

// Recorder implementa inventory.MetricsRecorder sobre un registry propio.
type Recorder struct {
	registry *prometheus.Registry

	movementsTotal     *prometheus.CounterVec
	movementUnits      *prometheus.HistogramVec
	rejectionsTotal    *prometheus.CounterVec
	transferStatus     *prometheus.CounterVec
	mismatchesTotal    prometheus.Counter
	mismatchUnits      prometheus.Histogram
	overdueTransfers   prometheus.Gauge
	alertsOutstanding  *prometheus.GaugeVec
	schedulerRunsTotal *prometheus.CounterVec
}

var _ inventory.MetricsRecorder = (*Recorder)(nil)

// New crea el recorder y registra los colectores estándar de Go y de proceso.
func New(cfg Config) *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	service := prometheus.Labels{"service": cfg.ServiceName}
	r := &Recorder{registry: registry}

	r.movementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "movements_total",
			Help:        "Movimientos confirmados en el ledger por tipo",
			ConstLabels: service,
		},
		[]string{"kind"},
	)
	r.movementUnits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "movement_units",
			Help:        "Unidades absolutas por movimiento",
			ConstLabels: service,
			Buckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)
	r.rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "operations_rejected_total",
			Help:        "Operaciones rechazadas por operación y código de error",
			ConstLabels: service,
		},
		[]string{"operation", "code"},
	)
	r.transferStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "transfer_transitions_total",
			Help:        "Transiciones de traslados por estado destino",
			ConstLabels: service,
		},
		[]string{"status"},
	)
	r.mismatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "transfer_mismatches_total",
			Help:        "Ítems de traslado recibidos con diferencia",
			ConstLabels: service,
		},
	)
	r.mismatchUnits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "transfer_mismatch_units",
			Help:        "Unidades de diferencia por ítem",
			ConstLabels: service,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)
	r.overdueTransfers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "transfers_overdue",
			Help:        "Traslados enviados que superan el SLA en el último barrido",
			ConstLabels: service,
		},
	)
	r.alertsOutstanding = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "alerts_outstanding",
			Help:        "Alertas vigentes por tipo y tienda en el último barrido",
			ConstLabels: service,
		},
		[]string{"kind", "store"},
	)
	r.schedulerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "scheduler_runs_total",
			Help:        "Ejecuciones de tareas programadas",
			ConstLabels: service,
		},
		[]string{"job", "status"},
	)

	registry.MustRegister(
		r.movementsTotal, r.movementUnits, r.rejectionsTotal, r.transferStatus,
		r.mismatchesTotal, r.mismatchUnits, r.overdueTransfers, r.alertsOutstanding,
		r.schedulerRunsTotal,
	)
	return r
}

// MovementCommitted cuenta un movimiento confirmado. Las reservas llegan con delta 0.
func (r *Recorder) MovementCommitted(kind entity.MovementKind, delta int64) {
	r.movementsTotal.WithLabelValues(string(kind)).Inc()
	if delta < 0 {
		delta = -delta
	}
	if delta > 0 {
		r.movementUnits.WithLabelValues(string(kind)).Observe(float64(delta))
	}
}

// OperationRejected cuenta un rechazo etiquetado con el código de error de la API.
func (r *Recorder) OperationRejected(operation string, err error) {
	r.rejectionsTotal.WithLabelValues(operation, dto.ErrorCode(err)).Inc()
}

// TransferStatusChanged cuenta una transición de traslado.
func (r *Recorder) TransferStatusChanged(status entity.TransferStatus) {
	r.transferStatus.WithLabelValues(string(status)).Inc()
}

// MismatchDetected registra un ítem recibido con diferencia.
func (r *Recorder) MismatchDetected(quantity int64) {
	r.mismatchesTotal.Inc()
	if quantity < 0 {
		quantity = -quantity
	}
	r.mismatchUnits.Observe(float64(quantity))
}

// SetOverdueTransfers fija el número de traslados vencidos del último barrido.
func (r *Recorder) SetOverdueTransfers(n int) {
	r.overdueTransfers.Set(float64(n))
}

// SetAlerts fija las alertas vigentes de un tipo (low_stock, expiry) en una tienda.
func (r *Recorder) SetAlerts(kind, storeID string, n int) {
	r.alertsOutstanding.WithLabelValues(kind, storeID).Set(float64(n))
}

// JobRun cuenta una ejecución de tarea programada.
func (r *Recorder) JobRun(job string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.schedulerRunsTotal.WithLabelValues(job, status).Inc()
}

// Registry expone el registry para tests y colectores adicionales.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler handler HTTP de exposición (/metrics).
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
