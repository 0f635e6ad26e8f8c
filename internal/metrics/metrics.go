package metrics

import (
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
)

// Metrics holds the engine's instruments. Creation failures are impossible
// with the global meter provider in use here, so New panics instead of
// returning an error the container could not act on anyway.
type Metrics struct {
	BookingsCreated   *telemetry.Counter
	BookingsConfirmed *telemetry.Counter
	BookingsFailed    *telemetry.Counter
	BookingsExpired   *telemetry.Counter

	WebhooksReceived   *telemetry.Counter
	WebhookDuplicates  *telemetry.Counter
	SignatureRejected  *telemetry.Counter
	SeatsSoldOut       *telemetry.Counter
	GatewayOrderErrors *telemetry.Counter

	BookingLatency *telemetry.Histogram
}

// New creates all instruments
func New() *Metrics {
	return &Metrics{
		BookingsCreated:    mustCounter("bookings_created_total", "Bookings accepted with seats held"),
		BookingsConfirmed:  mustCounter("bookings_confirmed_total", "Bookings confirmed by payment capture"),
		BookingsFailed:     mustCounter("bookings_failed_total", "Bookings failed by payment failure or gateway error"),
		BookingsExpired:    mustCounter("bookings_expired_total", "Bookings cancelled by the expiry sweeper"),
		WebhooksReceived:   mustCounter("webhooks_received_total", "Webhook deliveries accepted for processing"),
		WebhookDuplicates:  mustCounter("webhook_duplicates_total", "Webhook deliveries that found the booking already paid"),
		SignatureRejected:  mustCounter("signature_rejected_total", "Callback or webhook signatures that failed verification"),
		SeatsSoldOut:       mustCounter("seats_sold_out_total", "Booking attempts rejected for insufficient seats"),
		GatewayOrderErrors: mustCounter("gateway_order_errors_total", "Gateway order creation failures"),
		BookingLatency:     mustHistogram("booking_create_duration_ms", "Booking creation latency", "ms"),
	}
}

func mustCounter(name, desc string) *telemetry.Counter {
	c, err := telemetry.NewCounter(telemetry.MetricOpts{Name: name, Description: desc})
	if err != nil {
		panic(err)
	}
	return c
}

func mustHistogram(name, desc, unit string) *telemetry.Histogram {
	h, err := telemetry.NewHistogram(telemetry.MetricOpts{Name: name, Description: desc, Unit: unit})
	if err != nil {
		panic(err)
	}
	return h
}
