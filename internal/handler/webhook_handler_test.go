package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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
)

type webhookFixture struct {
	router   *gin.Engine
	gateway  *gateway.MockGateway
	tours    *repository.MemoryTourRepository
	bookings *repository.MemoryBookingRepository
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tours := repository.NewMemoryTourRepository()
	bookings := repository.NewMemoryBookingRepository(tours)
	gw := gateway.NewMockGateway("key-secret", "webhook-secret")
	m := metrics.New()

	rec := service.NewReconciliationService(bookings, nil, m)
	handler := NewWebhookHandler(gw, rec, m)

	router := gin.New()
	router.POST("/webhooks/payment", handler.HandlePayment)

	return &webhookFixture{router: router, gateway: gw, tours: tours, bookings: bookings}
}

func (f *webhookFixture) seedPendingBooking(t *testing.T, orderRef string) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	tour := &domain.TourPackage{
		ID:           uuid.NewString(),
		Destination:  "Goa",
		Title:        "Beach Week",
		StartDate:    time.Now().AddDate(0, 1, 0),
		DurationDays: 6,
		TotalSeats:   10,
		PriceCents:   25_000_00,
		Currency:     "INR",
	}
	if err := f.tours.Create(ctx, tour); err != nil {
		t.Fatalf("failed to create tour: %v", err)
	}

	b := &domain.Booking{
		ID:               uuid.NewString(),
		UserID:           "user-1",
		TourPackageID:    tour.ID,
		Status:           domain.BookingStatusPending,
		PaymentStatus:    domain.PaymentStatusUnpaid,
		TotalAmountCents: 25_000_00,
		Currency:         "INR",
		ContactName:      "Maya Iyer",
		ContactEmail:     "maya@example.com",
		ContactPhone:     "+919812341234",
		Passengers:       []domain.Passenger{{ID: uuid.NewString(), FullName: "Maya Iyer", Age: 31, Position: 1}},
		CreatedAt:        time.Now(),
	}
	if err := f.bookings.CreateWithReservation(ctx, b); err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	if err := f.bookings.AttachGatewayReference(ctx, b.ID, orderRef); err != nil {
		t.Fatalf("failed to attach order ref: %v", err)
	}
	return b
}

func (f *webhookFixture) deliver(t *testing.T, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func captureBody(orderRef string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","event":"payment.captured","order_id":"%s","payment_id":"pay_1","amount":2500000,"currency":"INR"}`,
		orderRef,
	))
}

func TestHandlePayment_ConfirmsBooking(t *testing.T) {
	f := newWebhookFixture(t)
	b := f.seedPendingBooking(t, "order_1")

	body := captureBody("order_1")
	w := f.deliver(t, body, f.gateway.SignWebhook(body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var ack dto.WebhookAck
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("failed to decode ack: %v", err)
	}
	if !ack.Received || ack.Result != string(service.OutcomeConfirmed) {
		t.Errorf("unexpected ack: %+v", ack)
	}

	got, _ := f.bookings.GetByID(context.Background(), b.ID)
	if got.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", got.Status)
	}
}

func TestHandlePayment_InvalidSignature(t *testing.T) {
	f := newWebhookFixture(t)
	b := f.seedPendingBooking(t, "order_1")

	body := captureBody("order_1")
	w := f.deliver(t, body, "deadbeef")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	// Rejected deliveries must not touch booking state
	got, _ := f.bookings.GetByID(context.Background(), b.ID)
	if got.Status != domain.BookingStatusPending {
		t.Errorf("expected PENDING, got %s", got.Status)
	}
}

func TestHandlePayment_MissingSignature(t *testing.T) {
	f := newWebhookFixture(t)
	body := captureBody("order_1")

	if w := f.deliver(t, body, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandlePayment_TamperedBody(t *testing.T) {
	f := newWebhookFixture(t)
	f.seedPendingBooking(t, "order_1")
	f.seedPendingBooking(t, "order_2")

	// Signature for order_1 replayed against a body naming order_2
	sig := f.gateway.SignWebhook(captureBody("order_1"))
	if w := f.deliver(t, captureBody("order_2"), sig); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandlePayment_MalformedPayload(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{"no_event_type":true}`)
	if w := f.deliver(t, body, f.gateway.SignWebhook(body)); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandlePayment_DuplicateAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	f.seedPendingBooking(t, "order_1")
	body := captureBody("order_1")
	sig := f.gateway.SignWebhook(body)

	if w := f.deliver(t, body, sig); w.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", w.Code)
	}

	w := f.deliver(t, body, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("redelivery: expected 200, got %d", w.Code)
	}
	var ack dto.WebhookAck
	json.Unmarshal(w.Body.Bytes(), &ack)
	if ack.Result != string(service.OutcomeDuplicate) {
		t.Errorf("expected duplicate outcome, got %s", ack.Result)
	}
}

func TestHandlePayment_UnknownOrderAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)

	body := captureBody("order_unknown")
	w := f.deliver(t, body, f.gateway.SignWebhook(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var ack dto.WebhookAck
	json.Unmarshal(w.Body.Bytes(), &ack)
	if ack.Result != string(service.OutcomeUnknownBooking) {
		t.Errorf("expected unknown_booking outcome, got %s", ack.Result)
	}
}

func TestHandlePayment_UnhandledEventAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{"id":"evt_9","event":"payout.settled","order_id":"order_1"}`)
	w := f.deliver(t, body, f.gateway.SignWebhook(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var ack dto.WebhookAck
	json.Unmarshal(w.Body.Bytes(), &ack)
	if ack.Result != string(service.OutcomeIgnored) {
		t.Errorf("expected ignored outcome, got %s", ack.Result)
	}
}
