package repository

import (
	"context"
	"time"

	"github.com/veeraphan/tour-booking-engine/internal/domain"
)

// TourRepository provides access to tour packages. Catalog editing lives in
// the admin surface; the engine needs reads for pricing and seat counts, and
// create for seeding.
type TourRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TourPackage, error)
	List(ctx context.Context) ([]*domain.TourPackage, error)
	Create(ctx context.Context, tour *domain.TourPackage) error
}

// BookingRepository owns bookings, passengers and their reservation ledger
// entries. Every mutator that touches both a booking and the inventory
// counter runs as one transaction, so partial application is impossible.
type BookingRepository interface {
	// CreateWithReservation atomically reserves booking.SeatCount() seats on
	// the tour package and inserts the booking, its passengers and a HELD
	// reservation ledger row. Returns domain.ErrInsufficientSeats without
	// side effects when not enough seats remain.
	CreateWithReservation(ctx context.Context, booking *domain.Booking) error

	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByOrderRef looks a booking up by its gateway order reference;
	// this is how webhook events find their booking.
	GetByOrderRef(ctx context.Context, orderRef string) (*domain.Booking, error)

	// AttachGatewayReference binds the booking to a gateway order exactly
	// once; a second attach fails with domain.ErrOrderRefAttached.
	AttachGatewayReference(ctx context.Context, id, orderRef string) error

	// MarkPaid moves PENDING/UNPAID to CONFIRMED/PAID and commits the held
	// reservation, all in one transaction. Returns domain.ErrAlreadyPaid when
	// the booking is already paid (the idempotency anchor for webhook
	// redelivery) and domain.ErrBookingFinalized when it reached a failure
	// terminal first (late webhook after expiry).
	MarkPaid(ctx context.Context, id string) error

	// MarkFailed moves PENDING to FAILED and releases the held seats back to
	// availability in the same transaction.
	MarkFailed(ctx context.Context, id, reason string) error

	// Expire moves PENDING to CANCELLED and releases the held seats. Safe to
	// race with MarkPaid: whichever transaction wins, the loser observes a
	// terminal state and no-ops.
	Expire(ctx context.Context, id string) error

	// GetExpired returns PENDING bookings created before the cutoff,
	// oldest first, for the sweeper.
	GetExpired(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Booking, error)
}
