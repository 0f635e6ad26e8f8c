package service

import (
	"context"
	"errors"
	"time"

	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Outcome classifies what a webhook delivery did. Every outcome except a
// transient processing error is acknowledged with 200 so the gateway stops
// redelivering.
type Outcome string

const (
	OutcomeConfirmed      Outcome = "confirmed"
	OutcomeFailed         Outcome = "failed"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeLateWebhook    Outcome = "late"
	OutcomeUnknownBooking Outcome = "unknown_booking"
	OutcomeIgnored        Outcome = "ignored"
)

// ReconciliationService applies gateway webhook events to booking state.
// Deliveries are at-least-once and unordered; all transitions go through
// conditional repository updates, so replays and races resolve to no-ops.
type ReconciliationService struct {
	bookings repository.BookingRepository
	notifier Notifier
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewReconciliationService creates a reconciliation service
func NewReconciliationService(bookings repository.BookingRepository, notifier Notifier, m *metrics.Metrics) *ReconciliationService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &ReconciliationService{
		bookings: bookings,
		notifier: notifier,
		metrics:  m,
		log:      logger.Get().With(zap.String("component", "reconciliation")),
	}
}

// ProcessEvent applies one verified, parsed webhook event. A non-nil error
// means processing genuinely failed (storage error) and the delivery should
// be retried by the gateway; every business-level resolution returns an
// Outcome with a nil error.
func (s *ReconciliationService) ProcessEvent(ctx context.Context, evt *domain.WebhookEvent) (Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reconciliation.process_event")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_type", string(evt.Type)),
		attribute.String("order_ref", evt.OrderRef),
	)

	s.metrics.WebhooksReceived.Inc(ctx, attribute.String("event_type", string(evt.Type)))

	if !evt.Type.IsHandled() {
		s.log.Debug("ignoring unhandled webhook event", zap.String("event_type", string(evt.Type)))
		span.SetStatus(codes.Ok, "ignored")
		return OutcomeIgnored, nil
	}

	booking, err := s.bookings.GetByOrderRef(ctx, evt.OrderRef)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			// Unknown order refs are acknowledged: redelivery cannot make
			// a booking appear that was never created here
			s.log.Warn("webhook for unknown order reference",
				zap.String("order_ref", evt.OrderRef),
				zap.String("event_type", string(evt.Type)),
			)
			span.SetStatus(codes.Ok, "unknown booking")
			return OutcomeUnknownBooking, nil
		}
		span.RecordError(err)
		return "", err
	}

	switch evt.Type {
	case domain.EventPaymentCaptured:
		return s.applyCapture(ctx, booking, evt)
	case domain.EventPaymentFailed:
		return s.applyFailure(ctx, booking, evt)
	default:
		return OutcomeIgnored, nil
	}
}

func (s *ReconciliationService) applyCapture(ctx context.Context, booking *domain.Booking, evt *domain.WebhookEvent) (Outcome, error) {
	err := s.bookings.MarkPaid(ctx, booking.ID)
	switch {
	case err == nil:
		s.metrics.BookingsConfirmed.Inc(ctx)
		s.log.Info("booking confirmed by payment capture",
			zap.String("booking_id", booking.ID),
			zap.String("order_ref", evt.OrderRef),
			zap.String("payment_ref", evt.PaymentRef),
		)
		s.notifier.Notify(ctx, BookingNotification{
			BookingID:    booking.ID,
			UserID:       booking.UserID,
			ContactEmail: booking.ContactEmail,
			Event:        "confirmed",
			AmountCents:  booking.TotalAmountCents,
			Currency:     booking.Currency,
			OccurredAt:   time.Now().UTC(),
		})
		return OutcomeConfirmed, nil

	case errors.Is(err, domain.ErrAlreadyPaid):
		// Redelivery of a capture we already applied
		s.metrics.WebhookDuplicates.Inc(ctx)
		s.log.Debug("duplicate capture webhook",
			zap.String("booking_id", booking.ID),
			zap.String("order_ref", evt.OrderRef),
		)
		return OutcomeDuplicate, nil

	case errors.Is(err, domain.ErrBookingFinalized):
		// Capture arrived after the booking expired or failed. The money
		// moved but the seats are gone; flag for manual refund handling.
		s.log.Warn("late capture webhook for finalized booking",
			zap.String("booking_id", booking.ID),
			zap.String("order_ref", evt.OrderRef),
			zap.String("payment_ref", evt.PaymentRef),
		)
		return OutcomeLateWebhook, nil

	default:
		return "", err
	}
}

func (s *ReconciliationService) applyFailure(ctx context.Context, booking *domain.Booking, evt *domain.WebhookEvent) (Outcome, error) {
	reason := evt.Reason
	if reason == "" {
		reason = "payment failed"
	}

	err := s.bookings.MarkFailed(ctx, booking.ID, reason)
	switch {
	case err == nil:
		s.metrics.BookingsFailed.Inc(ctx)
		s.log.Info("booking failed by payment failure",
			zap.String("booking_id", booking.ID),
			zap.String("order_ref", evt.OrderRef),
			zap.String("reason", reason),
		)
		s.notifier.Notify(ctx, BookingNotification{
			BookingID:    booking.ID,
			UserID:       booking.UserID,
			ContactEmail: booking.ContactEmail,
			Event:        "failed",
			Reason:       reason,
			AmountCents:  booking.TotalAmountCents,
			Currency:     booking.Currency,
			OccurredAt:   time.Now().UTC(),
		})
		return OutcomeFailed, nil

	case errors.Is(err, domain.ErrAlreadyPaid):
		// A failure event racing with or replayed after a successful
		// capture never un-confirms a paid booking
		s.log.Warn("failure webhook for paid booking ignored",
			zap.String("booking_id", booking.ID),
			zap.String("order_ref", evt.OrderRef),
		)
		return OutcomeDuplicate, nil

	case errors.Is(err, domain.ErrBookingFinalized):
		return OutcomeDuplicate, nil

	default:
		return "", err
	}
}
