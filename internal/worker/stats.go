package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"order-console/internal/domain"
	"order-console/internal/metrics"
	"order-console/internal/service"
)

type OrderLister interface {
	List(ctx context.Context) ([]domain.Order, error)
}

// StatsWorker periodically recomputes the order dashboard figures and exports
// them as gauges.
type StatsWorker struct {
	orders   OrderLister
	interval time.Duration
	log      logrus.FieldLogger
}

func NewStatsWorker(orders OrderLister, interval time.Duration, log logrus.FieldLogger) *StatsWorker {
	return &StatsWorker{
		orders:   orders,
		interval: interval,
		log:      log,
	}
}

func (w *StatsWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval.String()).Info("stats worker started")
	if err := w.refresh(ctx); err != nil {
		w.log.WithError(err).Warn("stats refresh failed")
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stats worker stopped")
			return
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				w.log.WithError(err).Warn("stats refresh failed")
			}
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) error {
	orders, err := w.orders.List(ctx)
	if err != nil {
		return err
	}
	stats := service.Stats(orders)

	metrics.OrdersByStatus.WithLabelValues(string(domain.OrderPending)).Set(float64(stats.Pending))
	metrics.OrdersByStatus.WithLabelValues(string(domain.OrderProcessing)).Set(float64(stats.Processing))
	metrics.OrdersByStatus.WithLabelValues(string(domain.OrderCompleted)).Set(float64(stats.Completed))
	metrics.OrdersByStatus.WithLabelValues(string(domain.OrderCancelled)).Set(float64(stats.Cancelled))

	// Timezones that no longer have pending work must drop to zero.
	metrics.PendingAccounts.Reset()
	for _, tz := range stats.TimezoneStats {
		metrics.PendingAccounts.WithLabelValues(tz.Timezone).Set(float64(tz.Total))
	}

	w.log.WithFields(logrus.Fields{
		"total":   stats.Total,
		"pending": stats.Pending,
	}).Debug("order stats refreshed")
	return nil
}
