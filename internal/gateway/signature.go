package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signPayload computes hex(HMAC-SHA256(secret, payload))
func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature recomputes the signature over payload and compares in
// constant time. Decoding the hex first keeps the comparison byte-wise
// rather than over ASCII representations.
func verifySignature(secret string, payload []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

// callbackPayload builds the canonical callback signing string
func callbackPayload(orderRef, paymentRef string) []byte {
	return []byte(orderRef + "|" + paymentRef)
}
