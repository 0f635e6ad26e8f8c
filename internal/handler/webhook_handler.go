package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/internal/dto"
	"github.com/veeraphan/tour-booking-engine/internal/gateway"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/internal/service"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"go.uber.org/zap"
)

// SignatureHeader carries the gateway's HMAC over the raw webhook body
const SignatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 1 << 20 // 1 MiB

// WebhookHandler receives server-to-server payment events from the gateway.
// This is the only surface that confirms or fails bookings.
type WebhookHandler struct {
	gateway        gateway.PaymentGateway
	reconciliation *service.ReconciliationService
	metrics        *metrics.Metrics
	log            *logger.Logger
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(gw gateway.PaymentGateway, rec *service.ReconciliationService, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{
		gateway:        gw,
		reconciliation: rec,
		metrics:        m,
		log:            logger.Get().With(zap.String("component", "webhook_handler")),
	}
}

// HandlePayment handles POST /webhooks/payment.
// The signature is verified over the exact bytes received, before any
// parsing or storage access. Only transient processing failures return 5xx;
// every business resolution is acknowledged with 200 so the gateway stops
// redelivering.
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unreadable body", Code: "BAD_REQUEST"})
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if signature == "" || !h.gateway.VerifyWebhookSignature(body, signature) {
		h.metrics.SignatureRejected.Inc(c.Request.Context())
		h.log.Warn("webhook signature rejected",
			zap.String("remote_addr", c.ClientIP()),
			zap.Int("body_bytes", len(body)),
		)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrInvalidSignature.Error(), Code: "INVALID_SIGNATURE"})
		return
	}

	evt, err := domain.ParseWebhookEvent(body)
	if err != nil {
		h.log.Warn("webhook payload rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "MALFORMED_PAYLOAD"})
		return
	}

	outcome, err := h.reconciliation.ProcessEvent(c.Request.Context(), evt)
	if err != nil {
		h.log.Error("webhook processing failed",
			zap.String("order_ref", evt.OrderRef),
			zap.String("event_type", string(evt.Type)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "processing failed", Code: "INTERNAL_ERROR"})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Received: true, Result: string(outcome)})
}
