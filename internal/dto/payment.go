package dto

// CallbackVerifyRequest is the body of POST /payments/callback-verify.
// The client forwards what the gateway handed back to the browser; this
// endpoint only tells the UI whether the signal looks genuine. It never
// mutates booking state; only the server-to-server webhook does.
type CallbackVerifyRequest struct {
	OrderRef   string `json:"order_reference" binding:"required"`
	PaymentRef string `json:"payment_reference" binding:"required"`
	Signature  string `json:"signature" binding:"required"`
}

// CallbackVerifyResponse is the verification verdict
type CallbackVerifyResponse struct {
	Valid bool `json:"valid"`
}

// WebhookAck is the acknowledgment body for webhook deliveries
type WebhookAck struct {
	Received bool   `json:"received"`
	Result   string `json:"result,omitempty"`
}
