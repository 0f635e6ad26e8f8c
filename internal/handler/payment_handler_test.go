package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/veeraphan/tour-booking-engine/internal/dto"
	"github.com/veeraphan/tour-booking-engine/internal/gateway"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
)

func setupPaymentRouter(gw gateway.PaymentGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewPaymentHandler(gw, metrics.New())
	router.POST("/api/v1/payments/callback-verify", handler.VerifyCallback)
	return router
}

func postCallbackVerify(t *testing.T, router *gin.Engine, req dto.CallbackVerifyRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest(http.MethodPost, "/api/v1/payments/callback-verify", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)
	return w
}

func TestVerifyCallback_Valid(t *testing.T) {
	gw := gateway.NewMockGateway("key-secret", "webhook-secret")
	router := setupPaymentRouter(gw)

	w := postCallbackVerify(t, router, dto.CallbackVerifyRequest{
		OrderRef:   "order_1",
		PaymentRef: "pay_1",
		Signature:  gw.SignCallback("order_1", "pay_1"),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"valid":true`)) {
		t.Errorf("expected valid verdict, got %s", w.Body.String())
	}
}

func TestVerifyCallback_Forged(t *testing.T) {
	gw := gateway.NewMockGateway("key-secret", "webhook-secret")
	router := setupPaymentRouter(gw)

	// Signature over a different payment reference
	w := postCallbackVerify(t, router, dto.CallbackVerifyRequest{
		OrderRef:   "order_1",
		PaymentRef: "pay_2",
		Signature:  gw.SignCallback("order_1", "pay_1"),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"valid":false`)) {
		t.Errorf("expected invalid verdict, got %s", w.Body.String())
	}
}

func TestVerifyCallback_MissingFields(t *testing.T) {
	gw := gateway.NewMockGateway("key-secret", "webhook-secret")
	router := setupPaymentRouter(gw)

	w := postCallbackVerify(t, router, dto.CallbackVerifyRequest{OrderRef: "order_1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
