package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/dto"
	"github.com/veeraphan/tour-booking-engine/internal/service"
	"github.com/veeraphan/tour-booking-engine/pkg/middleware"
	"github.com/veeraphan/tour-booking-engine/pkg/response"
)

// BookingHandler handles booking endpoints
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler creates a booking handler
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.bookings.CreateBooking(c.Request.Context(), userID, &req)
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Created(c, result)
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Success(c, dto.NewBookingResponse(booking))
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientSeats):
		response.Conflict(c, "SOLD_OUT", "not enough seats available")
	case domain.IsValidationError(err):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), "")
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrGatewayUnavailable):
		response.Error(c, http.StatusBadGateway, "GATEWAY_UNAVAILABLE", "payment gateway unavailable, please retry", "")
	case domain.IsConflictError(err):
		response.Conflict(c, "CONFLICT", err.Error())
	default:
		response.InternalError(c, err)
	}
}
