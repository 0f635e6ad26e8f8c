package dto

import (
	"time"

	"github.com/veeraphan/tour-booking-engine/internal/domain"
)

// PassengerInput is one traveler on a booking request
type PassengerInput struct {
	FullName string `json:"full_name" binding:"required"`
	Age      int    `json:"age" binding:"required"`
	Gender   string `json:"gender"`
}

// ContactInput is the contact block of a booking request
type ContactInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	PAN   string `json:"pan"`
}

// CreateBookingRequest is the body of POST /bookings.
// Seat count requested equals the passenger count.
type CreateBookingRequest struct {
	TourPackageID string           `json:"tour_package_id" binding:"required"`
	Passengers    []PassengerInput `json:"passengers" binding:"required"`
	Contact       ContactInput     `json:"contact" binding:"required"`
}

// CreateBookingResponse is returned once the booking is held and the
// gateway order is created; the client completes payment against OrderRef.
type CreateBookingResponse struct {
	BookingID   string    `json:"booking_id"`
	OrderRef    string    `json:"order_reference"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// BookingResponse is the read model of a booking
type BookingResponse struct {
	BookingID     string             `json:"booking_id"`
	TourPackageID string             `json:"tour_package_id"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
	OrderRef      string             `json:"order_reference,omitempty"`
	AmountCents   int64              `json:"amount_cents"`
	Currency      string             `json:"currency"`
	Passengers    []domain.Passenger `json:"passengers"`
	CreatedAt     time.Time          `json:"created_at"`
	ConfirmedAt   *time.Time         `json:"confirmed_at,omitempty"`
}

// NewBookingResponse maps a domain booking to its read model
func NewBookingResponse(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		BookingID:     b.ID,
		TourPackageID: b.TourPackageID,
		Status:        b.Status.String(),
		PaymentStatus: b.PaymentStatus.String(),
		OrderRef:      b.GatewayOrderRef,
		AmountCents:   b.TotalAmountCents,
		Currency:      b.Currency,
		Passengers:    b.Passengers,
		CreatedAt:     b.CreatedAt,
		ConfirmedAt:   b.ConfirmedAt,
	}
}

// ErrorResponse is the error body used by handlers
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
