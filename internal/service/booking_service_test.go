package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/dto"
	"github.com/veeraphan/tour-booking-engine/internal/gateway"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
)

type bookingFixture struct {
	tours    *repository.MemoryTourRepository
	bookings *repository.MemoryBookingRepository
	gateway  *gateway.MockGateway
	svc      *BookingService
	tour     *domain.TourPackage
}

func newBookingFixture(t *testing.T, seats int) *bookingFixture {
	t.Helper()

	tours := repository.NewMemoryTourRepository()
	bookings := repository.NewMemoryBookingRepository(tours)
	gw := gateway.NewMockGateway("key-secret", "webhook-secret")

	tour := &domain.TourPackage{
		ID:           uuid.NewString(),
		Destination:  "Jaipur",
		Title:        "Golden Triangle",
		StartDate:    time.Now().AddDate(0, 2, 0),
		DurationDays: 5,
		TotalSeats:   seats,
		PriceCents:   80_000_00,
		Currency:     "INR",
	}
	if err := tours.Create(context.Background(), tour); err != nil {
		t.Fatalf("failed to create tour: %v", err)
	}

	svc := NewBookingService(bookings, tours, gw, metrics.New(), BookingServiceConfig{
		HoldTTL:           30 * time.Minute,
		MaxPassengers:     9,
		PANThresholdCents: 200_000_00,
	})
	return &bookingFixture{tours: tours, bookings: bookings, gateway: gw, svc: svc, tour: tour}
}

func validRequest(tourID string, passengers int) *dto.CreateBookingRequest {
	req := &dto.CreateBookingRequest{
		TourPackageID: tourID,
		Contact: dto.ContactInput{
			Name:  "Asha Verma",
			Email: "asha@example.com",
			Phone: "+919812345678",
		},
	}
	for i := 0; i < passengers; i++ {
		req.Passengers = append(req.Passengers, dto.PassengerInput{
			FullName: "Passenger",
			Age:      28,
		})
	}
	return req
}

func TestCreateBooking_Success(t *testing.T) {
	f := newBookingFixture(t, 10)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, "user-1", validRequest(f.tour.ID, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OrderRef == "" {
		t.Error("expected an order reference")
	}
	if resp.AmountCents != 160_000_00 {
		t.Errorf("expected amount 160000_00, got %d", resp.AmountCents)
	}
	if resp.Status != string(domain.BookingStatusPending) {
		t.Errorf("expected PENDING, got %s", resp.Status)
	}

	tour, _ := f.tours.GetByID(ctx, f.tour.ID)
	if tour.AvailableSeats != 8 {
		t.Errorf("expected 8 seats remaining, got %d", tour.AvailableSeats)
	}

	stored, err := f.bookings.GetByOrderRef(ctx, resp.OrderRef)
	if err != nil {
		t.Fatalf("booking not findable by order ref: %v", err)
	}
	if stored.ID != resp.BookingID {
		t.Errorf("order ref resolves to wrong booking")
	}
}

func TestCreateBooking_SoldOut(t *testing.T) {
	f := newBookingFixture(t, 1)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", validRequest(f.tour.ID, 2))
	if !errors.Is(err, domain.ErrInsufficientSeats) {
		t.Fatalf("expected ErrInsufficientSeats, got %v", err)
	}
}

func TestCreateBooking_TourNotFound(t *testing.T) {
	f := newBookingFixture(t, 5)

	_, err := f.svc.CreateBooking(context.Background(), "user-1", validRequest(uuid.NewString(), 1))
	if !errors.Is(err, domain.ErrTourNotFound) {
		t.Fatalf("expected ErrTourNotFound, got %v", err)
	}
}

func TestCreateBooking_GatewayFailureReleasesHold(t *testing.T) {
	f := newBookingFixture(t, 5)
	ctx := context.Background()
	f.gateway.CreateOrderErr = domain.ErrGatewayUnavailable

	// Three passengers cross the PAN threshold, so the request carries one
	req := validRequest(f.tour.ID, 3)
	req.Contact.PAN = "ABCDE1234F"
	_, err := f.svc.CreateBooking(ctx, "user-1", req)
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}

	// The hold must not survive a failed order creation
	tour, _ := f.tours.GetByID(ctx, f.tour.ID)
	if tour.AvailableSeats != 5 {
		t.Errorf("expected all seats released, got %d available", tour.AvailableSeats)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newBookingFixture(t, 20)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*dto.CreateBookingRequest)
		wantErr error
	}{
		{
			name:    "no passengers",
			mutate:  func(r *dto.CreateBookingRequest) { r.Passengers = nil },
			wantErr: domain.ErrNoPassengers,
		},
		{
			name: "too many passengers",
			mutate: func(r *dto.CreateBookingRequest) {
				for i := 0; i < 10; i++ {
					r.Passengers = append(r.Passengers, dto.PassengerInput{FullName: "P", Age: 30})
				}
			},
			wantErr: domain.ErrTooManyPassengers,
		},
		{
			name:    "blank passenger name",
			mutate:  func(r *dto.CreateBookingRequest) { r.Passengers[0].FullName = "  " },
			wantErr: domain.ErrInvalidPassenger,
		},
		{
			name:    "zero age",
			mutate:  func(r *dto.CreateBookingRequest) { r.Passengers[0].Age = 0 },
			wantErr: domain.ErrInvalidPassenger,
		},
		{
			name:    "bad email",
			mutate:  func(r *dto.CreateBookingRequest) { r.Contact.Email = "not-an-email" },
			wantErr: domain.ErrInvalidContact,
		},
		{
			name:    "bad phone",
			mutate:  func(r *dto.CreateBookingRequest) { r.Contact.Phone = "call me" },
			wantErr: domain.ErrInvalidContact,
		},
		{
			name:    "malformed pan",
			mutate:  func(r *dto.CreateBookingRequest) { r.Contact.PAN = "12345" },
			wantErr: domain.ErrInvalidPAN,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(f.tour.ID, 1)
			tc.mutate(req)
			_, err := f.svc.CreateBooking(ctx, "user-1", req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateBooking_PANRequiredAboveThreshold(t *testing.T) {
	f := newBookingFixture(t, 10)
	ctx := context.Background()

	// 3 passengers at 80,000.00 = 240,000.00, above the 200,000.00 threshold
	req := validRequest(f.tour.ID, 3)
	_, err := f.svc.CreateBooking(ctx, "user-1", req)
	if !errors.Is(err, domain.ErrPANRequired) {
		t.Fatalf("expected ErrPANRequired, got %v", err)
	}

	req = validRequest(f.tour.ID, 3)
	req.Contact.PAN = "ABCDE1234F"
	if _, err := f.svc.CreateBooking(ctx, "user-1", req); err != nil {
		t.Fatalf("unexpected error with valid PAN: %v", err)
	}
}

func TestGetBooking_OwnershipEnforced(t *testing.T) {
	f := newBookingFixture(t, 5)
	ctx := context.Background()

	resp, err := f.svc.CreateBooking(ctx, "user-1", validRequest(f.tour.ID, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.GetBooking(ctx, "user-1", resp.BookingID); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := f.svc.GetBooking(ctx, "user-2", resp.BookingID); !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound for non-owner, got %v", err)
	}
}
