package gateway

import (
	"encoding/hex"
	"testing"
)

func TestVerifyCallbackSignature(t *testing.T) {
	gw := NewMockGateway("key-secret", "webhook-secret")

	sig := gw.SignCallback("order_123", "pay_456")
	if !gw.VerifyCallbackSignature("order_123", "pay_456", sig) {
		t.Error("expected valid signature to verify")
	}
}

func TestVerifyCallbackSignature_WrongOrder(t *testing.T) {
	gw := NewMockGateway("key-secret", "webhook-secret")

	sig := gw.SignCallback("order_123", "pay_456")
	if gw.VerifyCallbackSignature("order_999", "pay_456", sig) {
		t.Error("signature for another order must not verify")
	}
}

func TestVerifyCallbackSignature_BitFlip(t *testing.T) {
	gw := NewMockGateway("key-secret", "webhook-secret")

	sig := gw.SignCallback("order_123", "pay_456")
	raw, err := hex.DecodeString(sig)
	if err != nil {
		t.Fatalf("failed to decode signature: %v", err)
	}

	// Flipping any single bit must invalidate the signature
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(raw))
			copy(flipped, raw)
			flipped[i] ^= 1 << bit
			if gw.VerifyCallbackSignature("order_123", "pay_456", hex.EncodeToString(flipped)) {
				t.Fatalf("bit flip at byte %d bit %d still verified", i, bit)
			}
		}
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	gw := NewMockGateway("key-secret", "webhook-secret")
	body := []byte(`{"event":"payment.captured","order_id":"order_123"}`)

	sig := gw.SignWebhook(body)
	if !gw.VerifyWebhookSignature(body, sig) {
		t.Error("expected valid webhook signature to verify")
	}
}

func TestVerifyWebhookSignature_BodyTampered(t *testing.T) {
	gw := NewMockGateway("key-secret", "webhook-secret")
	body := []byte(`{"event":"payment.captured","order_id":"order_123"}`)

	sig := gw.SignWebhook(body)
	tampered := []byte(`{"event":"payment.captured","order_id":"order_999"}`)
	if gw.VerifyWebhookSignature(tampered, sig) {
		t.Error("signature must not verify for a different body")
	}
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	signer := NewMockGateway("key-secret", "webhook-secret")
	verifier := NewMockGateway("key-secret", "other-secret")
	body := []byte(`{"event":"payment.captured"}`)

	if verifier.VerifyWebhookSignature(body, signer.SignWebhook(body)) {
		t.Error("signature made with another secret must not verify")
	}
}

func TestVerifySignature_MalformedHex(t *testing.T) {
	if verifySignature("secret", []byte("payload"), "not-hex!") {
		t.Error("malformed hex must not verify")
	}
	if verifySignature("secret", []byte("payload"), "") {
		t.Error("empty signature must not verify")
	}
}
