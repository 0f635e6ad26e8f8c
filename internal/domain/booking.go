package domain

import "time"

// BookingStatus is the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusFailed    BookingStatus = "FAILED"
)

// String returns the string representation
func (s BookingStatus) String() string { return string(s) }

// IsTerminal reports whether no further transition is allowed from s
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled || s == BookingStatusFailed
}

// PaymentStatus is the payment state of a booking
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// String returns the string representation
func (s PaymentStatus) String() string { return string(s) }

// Booking is a reservation of seats on a tour package by one user.
// PaymentStatus moves UNPAID -> PAID at most once; that transition is the
// single point where the held seats become a permanent inventory decrement.
type Booking struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	TourPackageID    string        `json:"tour_package_id"`
	Status           BookingStatus `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	GatewayOrderRef  string        `json:"gateway_order_ref,omitempty"`
	TotalAmountCents int64         `json:"total_amount_cents"`
	Currency         string        `json:"currency"`
	ContactName      string        `json:"contact_name"`
	ContactEmail     string        `json:"contact_email"`
	ContactPhone     string        `json:"contact_phone"`
	PAN              string        `json:"-"`
	StatusReason     string        `json:"status_reason,omitempty"`
	Passengers       []Passenger   `json:"passengers"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	ConfirmedAt      *time.Time    `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty"`
}

// SeatCount is the number of seats this booking holds
func (b *Booking) SeatCount() int {
	return len(b.Passengers)
}

// Passenger belongs to exactly one booking and is immutable after creation
type Passenger struct {
	ID        string `json:"id"`
	BookingID string `json:"-"`
	FullName  string `json:"full_name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Position  int    `json:"position"`
}
