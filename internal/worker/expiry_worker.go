package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
	"github.com/veeraphan/tour-booking-engine/internal/service"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ExpiryWorkerConfig tunes the sweeper
type ExpiryWorkerConfig struct {
	HoldTTL       time.Duration
	SweepInterval time.Duration
	BatchSize     int
}

// ExpiryWorker periodically cancels PENDING bookings whose hold TTL lapsed
// and releases their seats. Safe to run while payment webhooks arrive: the
// repository's conditional transitions mean whichever side finalizes first
// wins and the other observes a no-op.
type ExpiryWorker struct {
	bookings repository.BookingRepository
	notifier service.Notifier
	metrics  *metrics.Metrics
	cfg      ExpiryWorkerConfig
	log      *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewExpiryWorker creates an expiry worker
func NewExpiryWorker(
	bookings repository.BookingRepository,
	notifier service.Notifier,
	m *metrics.Metrics,
	cfg ExpiryWorkerConfig,
) *ExpiryWorker {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if notifier == nil {
		notifier = service.NoopNotifier{}
	}
	return &ExpiryWorker{
		bookings: bookings,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		log:      logger.Get().With(zap.String("component", "expiry_worker")),
		stopCh:   make(chan struct{}),
	}
}

// Start begins sweeping in the background
func (w *ExpiryWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("expiry worker started",
		zap.Duration("hold_ttl", w.cfg.HoldTTL),
		zap.Duration("sweep_interval", w.cfg.SweepInterval),
	)
}

// Stop signals the worker and waits for the in-flight sweep to finish
func (w *ExpiryWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("expiry worker stopped")
}

func (w *ExpiryWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs one expiry pass and returns the number of bookings expired
func (w *ExpiryWorker) Sweep(ctx context.Context) int {
	ctx, span := telemetry.StartSpan(ctx, "worker.expiry.sweep")
	defer span.End()

	cutoff := time.Now().Add(-w.cfg.HoldTTL)
	expired, err := w.bookings.GetExpired(ctx, cutoff, w.cfg.BatchSize)
	if err != nil {
		w.log.Error("failed to list expired bookings", zap.Error(err))
		span.RecordError(err)
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	count := 0
	for _, b := range expired {
		err := w.bookings.Expire(ctx, b.ID)
		switch {
		case err == nil:
			count++
			w.metrics.BookingsExpired.Inc(ctx)
			w.log.Info("booking expired",
				zap.String("booking_id", b.ID),
				zap.Time("created_at", b.CreatedAt),
			)
			w.notifier.Notify(ctx, service.BookingNotification{
				BookingID:    b.ID,
				UserID:       b.UserID,
				ContactEmail: b.ContactEmail,
				Event:        "expired",
				AmountCents:  b.TotalAmountCents,
				Currency:     b.Currency,
				OccurredAt:   time.Now().UTC(),
			})

		case errors.Is(err, domain.ErrAlreadyPaid), errors.Is(err, domain.ErrBookingFinalized):
			// A webhook finalized this booking between listing and expiring;
			// nothing to do

		default:
			w.log.Error("failed to expire booking",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
		}
	}

	span.SetAttributes(attribute.Int("expired", count))
	return count
}
