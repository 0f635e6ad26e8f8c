package domain

import "time"

// TourPackage is a dated, seat-limited tour. TotalSeats is immutable after
// publish; AvailableSeats is the authoritative remaining sellable count and
// already reflects seats held by in-flight (unpaid) bookings.
//
// Invariant: 0 <= AvailableSeats <= TotalSeats at all times.
type TourPackage struct {
	ID             string    `json:"id"`
	Destination    string    `json:"destination"`
	Title          string    `json:"title"`
	StartDate      time.Time `json:"start_date"`
	DurationDays   int       `json:"duration_days"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	PriceCents     int64     `json:"price_cents"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
