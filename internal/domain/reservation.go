package domain

import "time"

// ReservationStatus is the state of a seat hold
type ReservationStatus string

const (
	// ReservationHeld means the seats are decremented from availability but
	// the booking is still awaiting payment confirmation
	ReservationHeld ReservationStatus = "HELD"
	// ReservationCommitted means the hold became a permanent decrement
	ReservationCommitted ReservationStatus = "COMMITTED"
	// ReservationReleased means the seats were returned to availability
	ReservationReleased ReservationStatus = "RELEASED"
)

// Reservation is the ledger entry recording the seats a pending booking
// holds. Created with the booking in one transaction; destroyed (logically)
// by commit or release. AvailableSeats is decremented when the reservation
// is created, so committing never touches the counter and releasing
// increments it back exactly once.
type Reservation struct {
	BookingID     string            `json:"booking_id"`
	TourPackageID string            `json:"tour_package_id"`
	SeatCount     int               `json:"seat_count"`
	Status        ReservationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
