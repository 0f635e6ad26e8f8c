package gateway

import "context"

// CreateOrderRequest asks the gateway to open a payment order for a booking
type CreateOrderRequest struct {
	BookingID   string
	AmountCents int64
	Currency    string
	Description string
}

// Order is the gateway's handle for a payment in flight. OrderRef is what
// webhook events and client callbacks carry to identify the payment.
type Order struct {
	OrderRef    string
	AmountCents int64
	Currency    string
	Status      string
}

// PaymentGateway is the outbound payment provider surface. Signature
// verification lives here too so handlers never touch raw secrets.
type PaymentGateway interface {
	// CreateOrder opens a payment order; returns domain.ErrGatewayUnavailable
	// when the provider cannot be reached or rejects the request.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)

	// VerifyCallbackSignature checks the signature the gateway handed the
	// client after checkout: HMAC-SHA256 over "orderRef|paymentRef".
	VerifyCallbackSignature(orderRef, paymentRef, signature string) bool

	// VerifyWebhookSignature checks the webhook delivery signature:
	// HMAC-SHA256 over the raw request body bytes, exactly as received.
	VerifyWebhookSignature(body []byte, signature string) bool
}
