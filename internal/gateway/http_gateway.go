package gateway

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/veeraphan/tour-booking-engine/internal/domain"
	"github.com/veeraphan/tour-booking-engine/pkg/config"
	"github.com/veeraphan/tour-booking-engine/pkg/logger"
	"github.com/veeraphan/tour-booking-engine/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// HTTPGateway talks to the payment provider's REST API
type HTTPGateway struct {
	client        *resty.Client
	keySecret     string
	webhookSecret string
	log           *logger.Logger
}

// NewHTTPGateway creates a gateway client from config
func NewHTTPGateway(cfg config.GatewayConfig) *HTTPGateway {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")

	return &HTTPGateway{
		client:        client,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		log:           logger.Get().With(zap.String("component", "payment_gateway")),
	}
}

type createOrderBody struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Description string `json:"description,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder opens a payment order with the provider
func (g *HTTPGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "gateway.create_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking_id", req.BookingID),
		attribute.Int64("amount_cents", req.AmountCents),
	)

	var result orderResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(createOrderBody{
			Amount:      req.AmountCents,
			Currency:    req.Currency,
			Receipt:     req.BookingID,
			Description: req.Description,
		}).
		SetResult(&result).
		Post("/v1/orders")
	if err != nil {
		g.log.Error("gateway order creation failed", zap.String("booking_id", req.BookingID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		g.log.Error("gateway rejected order",
			zap.String("booking_id", req.BookingID),
			zap.Int("status_code", resp.StatusCode()),
		)
		span.SetStatus(codes.Error, fmt.Sprintf("gateway status %d", resp.StatusCode()))
		return nil, fmt.Errorf("%w: gateway returned %d", domain.ErrGatewayUnavailable, resp.StatusCode())
	}

	span.SetAttributes(attribute.String("order_ref", result.ID))
	span.SetStatus(codes.Ok, "")
	return &Order{
		OrderRef:    result.ID,
		AmountCents: result.Amount,
		Currency:    result.Currency,
		Status:      result.Status,
	}, nil
}

// VerifyCallbackSignature checks the client callback signature
func (g *HTTPGateway) VerifyCallbackSignature(orderRef, paymentRef, signature string) bool {
	return verifySignature(g.keySecret, callbackPayload(orderRef, paymentRef), signature)
}

// VerifyWebhookSignature checks the webhook delivery signature over the raw body
func (g *HTTPGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return verifySignature(g.webhookSecret, body, signature)
}

var _ PaymentGateway = (*HTTPGateway)(nil)
