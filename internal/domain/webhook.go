package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// WebhookEventType identifies a gateway webhook event. The set is closed:
// anything outside it is acknowledged and deliberately ignored.
type WebhookEventType string

const (
	EventPaymentCaptured WebhookEventType = "payment.captured"
	EventPaymentFailed   WebhookEventType = "payment.failed"
)

// WebhookEvent is the parsed form of a gateway webhook delivery.
// Delivery is at-least-once and unordered; processing must be idempotent.
type WebhookEvent struct {
	ID         string           `json:"id"`
	Type       WebhookEventType `json:"event"`
	OrderRef   string           `json:"order_id"`
	PaymentRef string           `json:"payment_id"`
	AmountCent int64            `json:"amount"`
	Currency   string           `json:"currency"`
	Reason     string           `json:"reason,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// IsHandled reports whether this event type drives a state transition
func (t WebhookEventType) IsHandled() bool {
	return t == EventPaymentCaptured || t == EventPaymentFailed
}

// ParseWebhookEvent decodes the raw webhook body. The caller must have
// verified the body signature before calling this.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if evt.Type == "" {
		return nil, fmt.Errorf("webhook payload missing event type")
	}
	if evt.Type.IsHandled() && evt.OrderRef == "" {
		return nil, fmt.Errorf("webhook payload missing order reference")
	}
	return &evt, nil
}
