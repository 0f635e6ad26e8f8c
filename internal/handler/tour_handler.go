package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
	"github.com/veeraphan/tour-booking-engine/pkg/response"
)

// TourHandler handles tour package read endpoints
type TourHandler struct {
	tours repository.TourRepository
}

// NewTourHandler creates a tour handler
func NewTourHandler(tours repository.TourRepository) *TourHandler {
	return &TourHandler{tours: tours}
}

// List handles GET /api/v1/tours
func (h *TourHandler) List(c *gin.Context) {
	tours, err := h.tours.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, tours)
}

// Get handles GET /api/v1/tours/:id
func (h *TourHandler) Get(c *gin.Context) {
	tour, err := h.tours.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTourNotFound) {
			response.NotFound(c, "tour package not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, tour)
}
