package gateway

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockGateway is an in-process PaymentGateway for local development and
// tests. Orders always succeed and signatures verify against the same HMAC
// scheme as the real provider, so end-to-end flows exercise identical code.
type MockGateway struct {
	keySecret     string
	webhookSecret string
	seq           atomic.Int64

	// CreateOrderErr, when set, makes CreateOrder fail
	CreateOrderErr error
}

// NewMockGateway creates a mock gateway with the given signing secrets
func NewMockGateway(keySecret, webhookSecret string) *MockGateway {
	return &MockGateway{keySecret: keySecret, webhookSecret: webhookSecret}
}

// CreateOrder returns a deterministic order reference
func (g *MockGateway) CreateOrder(_ context.Context, req CreateOrderRequest) (*Order, error) {
	if g.CreateOrderErr != nil {
		return nil, g.CreateOrderErr
	}
	n := g.seq.Add(1)
	return &Order{
		OrderRef:    fmt.Sprintf("order_mock_%06d", n),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Status:      "created",
	}, nil
}

// VerifyCallbackSignature checks the client callback signature
func (g *MockGateway) VerifyCallbackSignature(orderRef, paymentRef, signature string) bool {
	return verifySignature(g.keySecret, callbackPayload(orderRef, paymentRef), signature)
}

// VerifyWebhookSignature checks a webhook signature over the raw body
func (g *MockGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return verifySignature(g.webhookSecret, body, signature)
}

// SignCallback produces a valid callback signature; used by tests and the
// local checkout simulator
func (g *MockGateway) SignCallback(orderRef, paymentRef string) string {
	return signPayload(g.keySecret, callbackPayload(orderRef, paymentRef))
}

// SignWebhook produces a valid webhook signature over body
func (g *MockGateway) SignWebhook(body []byte) string {
	return signPayload(g.webhookSecret, body)
}

var _ PaymentGateway = (*MockGateway)(nil)
