// Package scheduler ejecuta los barridos periódicos del ledger: traslados vencidos y alertas por tienda.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const (
	JobOverdueTransfers = "overdue_transfers"
	JobStoreAlerts      = "store_alerts"

	jobTimeout = 2 * time.Minute
)

// Gauges recibe el resultado de cada barrido (implementado por metrics.Recorder).
type Gauges interface {
	SetOverdueTransfers(n int)
	SetAlerts(kind, storeID string, n int)
	JobRun(job string, err error)
}

// Scheduler administra las tareas programadas.
type Scheduler struct {
	cron      *cron.Cron
	alerts    *inventory.AlertUseCase
	transfers *inventory.TransferUseCase
	cfg       config.SchedulerConfig
	gauges    Gauges
	log       *logger.Logger
}

// New crea el scheduler. gauges y log pueden ser nil.
func New(cfg config.SchedulerConfig, alerts *inventory.AlertUseCase, transfers *inventory.TransferUseCase, gauges Gauges, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron:      cron.New(),
		alerts:    alerts,
		transfers: transfers,
		cfg:       cfg,
		gauges:    gauges,
		log:       log,
	}
}

// Start registra las tareas y arranca el cron. Una expresión vacía desactiva su tarea.
func (s *Scheduler) Start() error {
	if s.cfg.OverdueSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.OverdueSpec, s.job(JobOverdueTransfers, func(ctx context.Context) error {
			_, err := s.RunOverdueSweep(ctx)
			return err
		})); err != nil {
			return fmt.Errorf("programar %s (%q): %w", JobOverdueTransfers, s.cfg.OverdueSpec, err)
		}
	}
	if s.cfg.AlertsSpec != "" && len(s.cfg.Stores) > 0 {
		if _, err := s.cron.AddFunc(s.cfg.AlertsSpec, s.job(JobStoreAlerts, s.RunAlertSweep)); err != nil {
			return fmt.Errorf("programar %s (%q): %w", JobStoreAlerts, s.cfg.AlertsSpec, err)
		}
	}
	s.log.Info().
		Str("overdue_spec", s.cfg.OverdueSpec).
		Str("alerts_spec", s.cfg.AlertsSpec).
		Strs("stores", s.cfg.Stores).
		Msg("scheduler iniciado")
	s.cron.Start()
	return nil
}

// Stop detiene el cron y espera a que terminen las tareas en curso o a que venza ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.log.Info().Msg("deteniendo scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("tareas programadas sin terminar al apagar")
	}
}

func (s *Scheduler) job(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		err := fn(ctx)
		if s.gauges != nil {
			s.gauges.JobRun(name, err)
		}
		if err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("tarea programada fallida")
			return
		}
		s.log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("tarea programada completada")
	}
}

// RunOverdueSweep registra los traslados que superaron el SLA y devuelve cuántos son.
func (s *Scheduler) RunOverdueSweep(ctx context.Context) (int, error) {
	overdue, err := s.alerts.OverdueTransferAlerts(ctx, s.transfers)
	if err != nil {
		return 0, err
	}
	for _, t := range overdue {
		s.log.Warn().
			Str("transfer_id", t.TransferID).
			Str("number", t.Number).
			Str("from_store", t.FromStoreID).
			Str("to_store", t.ToStoreID).
			Time("sent_at", t.SentAt).
			Dur("overdue", t.Overdue).
			Msg("traslado sin recibir fuera de SLA")
	}
	if s.gauges != nil {
		s.gauges.SetOverdueTransfers(len(overdue))
	}
	return len(overdue), nil
}

// RunAlertSweep calcula stock bajo y vencimientos de cada tienda configurada.
// Un fallo en una tienda no detiene las demás; se devuelve el primero.
func (s *Scheduler) RunAlertSweep(ctx context.Context) error {
	var first error
	for _, storeID := range s.cfg.Stores {
		if err := s.storeAlerts(ctx, storeID); err != nil {
			s.log.Error().Err(err).Str("store_id", storeID).Msg("alertas de tienda")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (s *Scheduler) storeAlerts(ctx context.Context, storeID string) error {
	low, err := s.alerts.LowStockAlerts(ctx, storeID)
	if err != nil {
		return err
	}
	for _, a := range low {
		s.log.Warn().
			Str("store_id", storeID).
			Str("sku", a.SKU).
			Int64("available", a.Available).
			Int64("min_stock", a.MinStock).
			Int64("suggested", a.SuggestedOrderQty).
			Msg("stock bajo")
	}
	expiring, err := s.alerts.ExpiryAlerts(ctx, storeID, 0)
	if err != nil {
		return err
	}
	for _, a := range expiring {
		s.log.Warn().
			Str("store_id", storeID).
			Str("sku", a.SKU).
			Str("batch", a.BatchCode).
			Int64("quantity", a.Quantity).
			Int("days_to_expiry", a.DaysToExpiry).
			Msg("stock próximo a vencer")
	}
	if s.gauges != nil {
		s.gauges.SetAlerts("low_stock", storeID, len(low))
		s.gauges.SetAlerts("expiry", storeID, len(expiring))
	}
	return nil
}
