package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/veeraphan/tour-booking-engine/internal/domain"
)

// MemoryTourRepository is an in-memory TourRepository for tests and local
// development
type MemoryTourRepository struct {
	mu    sync.RWMutex
	tours map[string]*domain.TourPackage
}

// NewMemoryTourRepository creates an empty in-memory tour repository
func NewMemoryTourRepository() *MemoryTourRepository {
	return &MemoryTourRepository{tours: make(map[string]*domain.TourPackage)}
}

// GetByID retrieves a tour package by ID
func (r *MemoryTourRepository) GetByID(_ context.Context, id string) (*domain.TourPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tour, ok := r.tours[id]
	if !ok {
		return nil, domain.ErrTourNotFound
	}
	cp := *tour
	return &cp, nil
}

// List returns all tour packages ordered by start date
func (r *MemoryTourRepository) List(_ context.Context) ([]*domain.TourPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tours := make([]*domain.TourPackage, 0, len(r.tours))
	for _, t := range r.tours {
		cp := *t
		tours = append(tours, &cp)
	}
	sort.Slice(tours, func(i, j int) bool { return tours[i].StartDate.Before(tours[j].StartDate) })
	return tours, nil
}

// Create inserts a tour package with AvailableSeats = TotalSeats
func (r *MemoryTourRepository) Create(_ context.Context, tour *domain.TourPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cp := *tour
	cp.AvailableSeats = cp.TotalSeats
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.tours[cp.ID] = &cp
	tour.AvailableSeats = tour.TotalSeats
	return nil
}

// MemoryBookingRepository is an in-memory BookingRepository. It shares the
// tour repository's seat counters so reservation accounting behaves like the
// SQL implementation: every mutator runs under one lock, conditional on
// current state.
type MemoryBookingRepository struct {
	tours *MemoryTourRepository

	mu           sync.Mutex
	bookings     map[string]*domain.Booking
	byOrderRef   map[string]string
	reservations map[string]*domain.Reservation
}

// NewMemoryBookingRepository creates an in-memory booking repository backed
// by the given tour repository's seat counters
func NewMemoryBookingRepository(tours *MemoryTourRepository) *MemoryBookingRepository {
	return &MemoryBookingRepository{
		tours:        tours,
		bookings:     make(map[string]*domain.Booking),
		byOrderRef:   make(map[string]string),
		reservations: make(map[string]*domain.Reservation),
	}
}

// CreateWithReservation reserves seats and stores the booking atomically
func (r *MemoryBookingRepository) CreateWithReservation(_ context.Context, booking *domain.Booking) error {
	seatCount := booking.SeatCount()
	if seatCount <= 0 {
		return domain.ErrNoPassengers
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tours.mu.Lock()
	defer r.tours.mu.Unlock()

	tour, ok := r.tours.tours[booking.TourPackageID]
	if !ok {
		return domain.ErrTourNotFound
	}
	if tour.AvailableSeats < seatCount {
		return domain.ErrInsufficientSeats
	}
	tour.AvailableSeats -= seatCount

	now := time.Now()
	cp := cloneBooking(booking)
	cp.CreatedAt = booking.CreatedAt
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.bookings[cp.ID] = cp
	r.reservations[cp.ID] = &domain.Reservation{
		BookingID:     cp.ID,
		TourPackageID: cp.TourPackageID,
		SeatCount:     seatCount,
		Status:        domain.ReservationHeld,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return nil
}

// GetByID retrieves a booking by ID
func (r *MemoryBookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// GetByOrderRef retrieves a booking by its gateway order reference
func (r *MemoryBookingRepository) GetByOrderRef(_ context.Context, orderRef string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byOrderRef[orderRef]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return cloneBooking(r.bookings[id]), nil
}

// AttachGatewayReference binds the gateway order reference exactly once
func (r *MemoryBookingRepository) AttachGatewayReference(_ context.Context, id, orderRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.GatewayOrderRef != "" {
		return domain.ErrOrderRefAttached
	}
	b.GatewayOrderRef = orderRef
	b.UpdatedAt = time.Now()
	r.byOrderRef[orderRef] = id
	return nil
}

// MarkPaid confirms the booking and commits its reservation
func (r *MemoryBookingRepository) MarkPaid(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.PaymentStatus == domain.PaymentStatusPaid {
		return domain.ErrAlreadyPaid
	}
	if b.Status != domain.BookingStatusPending {
		return domain.ErrBookingFinalized
	}

	now := time.Now()
	b.Status = domain.BookingStatusConfirmed
	b.PaymentStatus = domain.PaymentStatusPaid
	b.ConfirmedAt = &now
	b.UpdatedAt = now

	if res := r.reservations[id]; res != nil && res.Status == domain.ReservationHeld {
		res.Status = domain.ReservationCommitted
		res.UpdatedAt = now
	}
	return nil
}

// MarkFailed fails the booking and releases its held seats
func (r *MemoryBookingRepository) MarkFailed(_ context.Context, id, reason string) error {
	return r.finalize(id, domain.BookingStatusFailed, domain.PaymentStatusFailed, reason)
}

// Expire cancels a booking whose hold lapsed and releases its seats
func (r *MemoryBookingRepository) Expire(_ context.Context, id string) error {
	return r.finalize(id, domain.BookingStatusCancelled, domain.PaymentStatusUnpaid, "reservation hold expired")
}

func (r *MemoryBookingRepository) finalize(id string, status domain.BookingStatus, payStatus domain.PaymentStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.PaymentStatus == domain.PaymentStatusPaid {
		return domain.ErrAlreadyPaid
	}
	if b.Status != domain.BookingStatusPending {
		return domain.ErrBookingFinalized
	}

	now := time.Now()
	b.Status = status
	b.PaymentStatus = payStatus
	b.StatusReason = reason
	b.CancelledAt = &now
	b.UpdatedAt = now

	if res := r.reservations[id]; res != nil && res.Status == domain.ReservationHeld {
		res.Status = domain.ReservationReleased
		res.UpdatedAt = now

		r.tours.mu.Lock()
		if tour, ok := r.tours.tours[res.TourPackageID]; ok {
			tour.AvailableSeats += res.SeatCount
		}
		r.tours.mu.Unlock()
	}
	return nil
}

// GetExpired returns PENDING bookings created before the cutoff
func (r *MemoryBookingRepository) GetExpired(_ context.Context, olderThan time.Time, limit int) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*domain.Booking
	for _, b := range r.bookings {
		if b.Status == domain.BookingStatusPending && b.CreatedAt.Before(olderThan) {
			expired = append(expired, cloneBooking(b))
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].CreatedAt.Before(expired[j].CreatedAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	cp := *b
	cp.Passengers = make([]domain.Passenger, len(b.Passengers))
	copy(cp.Passengers, b.Passengers)
	return &cp
}

var (
	_ TourRepository    = (*MemoryTourRepository)(nil)
	_ BookingRepository = (*MemoryBookingRepository)(nil)
)
