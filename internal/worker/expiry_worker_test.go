package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
)

func seedBooking(t *testing.T, bookings *repository.MemoryBookingRepository, tourID string, age time.Duration) *domain.Booking {
	t.Helper()

	b := &domain.Booking{
		ID:               uuid.NewString(),
		UserID:           "user-1",
		TourPackageID:    tourID,
		Status:           domain.BookingStatusPending,
		PaymentStatus:    domain.PaymentStatusUnpaid,
		TotalAmountCents: 10_000_00,
		Currency:         "INR",
		ContactEmail:     "traveler@example.com",
		Passengers:       []domain.Passenger{{ID: uuid.NewString(), FullName: "P", Age: 30, Position: 1}},
		CreatedAt:        time.Now().Add(-age),
	}
	if err := bookings.CreateWithReservation(context.Background(), b); err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	return b
}

func newSweeperFixture(t *testing.T, seats int) (*repository.MemoryTourRepository, *repository.MemoryBookingRepository, *domain.TourPackage) {
	t.Helper()

	tours := repository.NewMemoryTourRepository()
	bookings := repository.NewMemoryBookingRepository(tours)
	tour := &domain.TourPackage{
		ID:           uuid.NewString(),
		Destination:  "Rishikesh",
		Title:        "River Camp",
		StartDate:    time.Now().AddDate(0, 1, 0),
		DurationDays: 3,
		TotalSeats:   seats,
		PriceCents:   10_000_00,
		Currency:     "INR",
	}
	if err := tours.Create(context.Background(), tour); err != nil {
		t.Fatalf("failed to create tour: %v", err)
	}
	return tours, bookings, tour
}

func TestSweep_ExpiresOnlyStaleHolds(t *testing.T) {
	tours, bookings, tour := newSweeperFixture(t, 10)
	ctx := context.Background()

	stale := seedBooking(t, bookings, tour.ID, time.Hour)
	fresh := seedBooking(t, bookings, tour.ID, time.Minute)

	w := NewExpiryWorker(bookings, nil, metrics.New(), ExpiryWorkerConfig{
		HoldTTL:       30 * time.Minute,
		SweepInterval: time.Minute,
		BatchSize:     100,
	})

	if n := w.Sweep(ctx); n != 1 {
		t.Fatalf("expected 1 expiry, got %d", n)
	}

	gotStale, _ := bookings.GetByID(ctx, stale.ID)
	if gotStale.Status != domain.BookingStatusCancelled {
		t.Errorf("stale booking: expected CANCELLED, got %s", gotStale.Status)
	}
	gotFresh, _ := bookings.GetByID(ctx, fresh.ID)
	if gotFresh.Status != domain.BookingStatusPending {
		t.Errorf("fresh booking: expected PENDING, got %s", gotFresh.Status)
	}

	// Only the stale hold's seat returns
	gotTour, _ := tours.GetByID(ctx, tour.ID)
	if gotTour.AvailableSeats != 9 {
		t.Errorf("expected 9 available seats, got %d", gotTour.AvailableSeats)
	}
}

func TestSweep_SkipsBookingsPaidMidSweep(t *testing.T) {
	tours, bookings, tour := newSweeperFixture(t, 5)
	ctx := context.Background()

	stale := seedBooking(t, bookings, tour.ID, time.Hour)

	// Payment lands before the sweeper reaches this booking
	if err := bookings.MarkPaid(ctx, stale.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := NewExpiryWorker(bookings, nil, metrics.New(), ExpiryWorkerConfig{
		HoldTTL:       30 * time.Minute,
		SweepInterval: time.Minute,
		BatchSize:     100,
	})

	if n := w.Sweep(ctx); n != 0 {
		t.Fatalf("expected 0 expiries, got %d", n)
	}

	got, _ := bookings.GetByID(ctx, stale.ID)
	if got.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", got.Status)
	}
	gotTour, _ := tours.GetByID(ctx, tour.ID)
	if gotTour.AvailableSeats != 4 {
		t.Errorf("expected 4 available seats, got %d", gotTour.AvailableSeats)
	}
}

func TestSweep_RespectsBatchSize(t *testing.T) {
	_, bookings, tour := newSweeperFixture(t, 10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedBooking(t, bookings, tour.ID, time.Hour)
	}

	w := NewExpiryWorker(bookings, nil, metrics.New(), ExpiryWorkerConfig{
		HoldTTL:       30 * time.Minute,
		SweepInterval: time.Minute,
		BatchSize:     2,
	})

	if n := w.Sweep(ctx); n != 2 {
		t.Fatalf("first sweep: expected 2 expiries, got %d", n)
	}
	if n := w.Sweep(ctx); n != 2 {
		t.Fatalf("second sweep: expected 2 expiries, got %d", n)
	}
	if n := w.Sweep(ctx); n != 1 {
		t.Fatalf("third sweep: expected 1 expiry, got %d", n)
	}
}

func TestStartStop(t *testing.T) {
	_, bookings, _ := newSweeperFixture(t, 5)

	w := NewExpiryWorker(bookings, nil, metrics.New(), ExpiryWorkerConfig{
		HoldTTL:       30 * time.Minute,
		SweepInterval: 10 * time.Millisecond,
		BatchSize:     10,
	})
	w.Start()
	time.Sleep(50 * time.Millisecond)
	w.Stop()
}
