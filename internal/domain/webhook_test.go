package domain

import "testing"

func TestParseWebhookEvent(t *testing.T) {
	raw := []byte(`{"id":"evt_1","event":"payment.captured","order_id":"order_1","payment_id":"pay_1","amount":250000,"currency":"INR"}`)

	evt, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Type != EventPaymentCaptured {
		t.Errorf("expected %s, got %s", EventPaymentCaptured, evt.Type)
	}
	if evt.OrderRef != "order_1" {
		t.Errorf("expected order_1, got %s", evt.OrderRef)
	}
}

func TestParseWebhookEvent_UnknownType(t *testing.T) {
	raw := []byte(`{"event":"refund.created","order_id":"order_1"}`)

	evt, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Type.IsHandled() {
		t.Error("refund.created must not be a handled type")
	}
}

func TestParseWebhookEvent_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{not json`},
		{"missing event type", `{"order_id":"order_1"}`},
		{"handled type without order ref", `{"event":"payment.captured"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseWebhookEvent([]byte(tc.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBookingStatusIsTerminal(t *testing.T) {
	if BookingStatusPending.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}
	for _, s := range []BookingStatus{BookingStatusConfirmed, BookingStatusCancelled, BookingStatusFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}
