package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/dto"
	"github.com/veeraphan/tour-booking-engine/internal/gateway"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/repository"
	"github.com/veeraphan/tour-booking-engine/internal/service"
	"github.com/veeraphan/tour-booking-engine/pkg/middleware"
)

type bookingHandlerFixture struct {
	router *gin.Engine
	tours  *repository.MemoryTourRepository
	tour   *domain.TourPackage
}

// testAuth injects a fixed user id the way the JWT middleware would
func testAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextKeyUserID, userID)
		}
		c.Next()
	}
}

func newBookingHandlerFixture(t *testing.T, userID string, seats int) *bookingHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tours := repository.NewMemoryTourRepository()
	bookings := repository.NewMemoryBookingRepository(tours)
	gw := gateway.NewMockGateway("key-secret", "webhook-secret")

	tour := &domain.TourPackage{
		ID:           uuid.NewString(),
		Destination:  "Hampi",
		Title:        "Heritage Trail",
		StartDate:    time.Now().AddDate(0, 1, 0),
		DurationDays: 4,
		TotalSeats:   seats,
		PriceCents:   20_000_00,
		Currency:     "INR",
	}
	if err := tours.Create(context.Background(), tour); err != nil {
		t.Fatalf("failed to create tour: %v", err)
	}

	svc := service.NewBookingService(bookings, tours, gw, metrics.New(), service.BookingServiceConfig{
		HoldTTL:       30 * time.Minute,
		MaxPassengers: 9,
	})
	handler := NewBookingHandler(svc)

	router := gin.New()
	group := router.Group("/api/v1/bookings", testAuth(userID))
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)

	return &bookingHandlerFixture{router: router, tours: tours, tour: tour}
}

func postBooking(f *bookingHandlerFixture, req dto.CreateBookingRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httpReq)
	return w
}

func bookingRequest(tourID string, passengers int) dto.CreateBookingRequest {
	req := dto.CreateBookingRequest{
		TourPackageID: tourID,
		Contact: dto.ContactInput{
			Name:  "Kiran Rao",
			Email: "kiran@example.com",
			Phone: "+919911223344",
		},
	}
	for i := 0; i < passengers; i++ {
		req.Passengers = append(req.Passengers, dto.PassengerInput{FullName: "Traveler", Age: 35})
	}
	return req
}

func TestBookingCreate_Success(t *testing.T) {
	f := newBookingHandlerFixture(t, "user-1", 10)

	w := postBooking(f, bookingRequest(f.tour.ID, 2))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"order_reference"`)) {
		t.Errorf("expected an order reference in response: %s", w.Body.String())
	}
}

func TestBookingCreate_Unauthenticated(t *testing.T) {
	f := newBookingHandlerFixture(t, "", 10)

	w := postBooking(f, bookingRequest(f.tour.ID, 1))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestBookingCreate_SoldOut(t *testing.T) {
	f := newBookingHandlerFixture(t, "user-1", 1)

	w := postBooking(f, bookingRequest(f.tour.ID, 2))
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBookingCreate_ValidationError(t *testing.T) {
	f := newBookingHandlerFixture(t, "user-1", 10)

	req := bookingRequest(f.tour.ID, 1)
	req.Contact.Email = "not-an-email"
	w := postBooking(f, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBookingCreate_UnknownTour(t *testing.T) {
	f := newBookingHandlerFixture(t, "user-1", 10)

	w := postBooking(f, bookingRequest(uuid.NewString(), 1))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBookingGet_RoundTrip(t *testing.T) {
	f := newBookingHandlerFixture(t, "user-1", 10)

	w := postBooking(f, bookingRequest(f.tour.ID, 1))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var created struct {
		Data dto.CreateBookingResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/bookings/"+created.Data.BookingID, nil)
	w2 := httptest.NewRecorder()
	f.router.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	if !bytes.Contains(w2.Body.Bytes(), []byte(created.Data.BookingID)) {
		t.Errorf("expected booking id in response")
	}
}
