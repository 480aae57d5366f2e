// Package gateway holds the payment gateway boundary: signature computation
// and verification for payment confirmations, normalization of the gateway's
// heterogeneous order shapes, and the hosted checkout opener.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"campusticketing/internal/domain"
)

// Sign computes the hex HMAC-SHA256 signature over "orderID|paymentID".
// This is the scheme hosted checkouts use to sign their success callback.
func Sign(orderID, paymentID string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether ref carries a valid signature for secret.
// Comparison is constant-time.
func VerifySignature(ref domain.PaymentReference, secret []byte) bool {
	expected := Sign(ref.OrderID, ref.PaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(ref.Signature))
}
