package domain

import "errors"

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingFinalized = errors.New("booking already in a terminal state")
	ErrAlreadyPaid      = errors.New("booking already paid")
	ErrOrderRefAttached = errors.New("gateway order reference already attached")

	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrAlreadyCommitted    = errors.New("reservation already committed")
	ErrAlreadyReleased     = errors.New("reservation already released")

	// Validation errors
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidTourPackage = errors.New("invalid tour package id")
	ErrNoPassengers       = errors.New("at least one passenger is required")
	ErrTooManyPassengers  = errors.New("too many passengers for one booking")
	ErrInvalidPassenger   = errors.New("invalid passenger details")
	ErrInvalidContact     = errors.New("invalid contact details")
	ErrPANRequired        = errors.New("PAN is required for this booking amount")
	ErrInvalidPAN         = errors.New("invalid PAN format")

	// Availability errors
	ErrInsufficientSeats = errors.New("insufficient seats available")

	// Tour errors
	ErrTourNotFound = errors.New("tour package not found")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidSignature   = errors.New("signature verification failed")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrTourNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidTourPackage) ||
		errors.Is(err, ErrNoPassengers) ||
		errors.Is(err, ErrTooManyPassengers) ||
		errors.Is(err, ErrInvalidPassenger) ||
		errors.Is(err, ErrInvalidContact) ||
		errors.Is(err, ErrPANRequired) ||
		errors.Is(err, ErrInvalidPAN)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInsufficientSeats) ||
		errors.Is(err, ErrBookingFinalized) ||
		errors.Is(err, ErrAlreadyPaid) ||
		errors.Is(err, ErrOrderRefAttached) ||
		errors.Is(err, ErrAlreadyCommitted) ||
		errors.Is(err, ErrAlreadyReleased)
}
