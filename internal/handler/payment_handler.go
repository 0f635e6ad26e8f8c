package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/veeraphan/tour-booking-engine/internal/dto"
	"github.com/veeraphan/tour-booking-engine/internal/gateway"
	"github.com/veeraphan/tour-booking-engine/internal/metrics"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"github.com/veeraphan/tour-booking-engine/pkg/response"
	"go.uber.org/zap"
)

// PaymentHandler handles the client-side payment callback verification
type PaymentHandler struct {
	gateway gateway.PaymentGateway
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewPaymentHandler creates a payment handler
func NewPaymentHandler(gw gateway.PaymentGateway, m *metrics.Metrics) *PaymentHandler {
	return &PaymentHandler{
		gateway: gw,
		metrics: m,
		log:     logger.Get().With(zap.String("component", "payment_handler")),
	}
}

// VerifyCallback handles POST /api/v1/payments/callback-verify.
// Advisory only: the verdict lets the UI show success or failure early, but
// booking state changes exclusively through the webhook.
func (h *PaymentHandler) VerifyCallback(c *gin.Context) {
	var req dto.CallbackVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	valid := h.gateway.VerifyCallbackSignature(req.OrderRef, req.PaymentRef, req.Signature)
	if !valid {
		h.metrics.SignatureRejected.Inc(c.Request.Context())
		h.log.Warn("callback signature rejected",
			zap.String("order_ref", req.OrderRef),
			zap.String("payment_ref", req.PaymentRef),
		)
	}

	response.Success(c, dto.CallbackVerifyResponse{Valid: valid})
}
