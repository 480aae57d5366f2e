package domain

import "context"

// PaymentOrder is a gateway-scoped, single-use authorization to collect a
// specific amount. It is immutable after creation and never persisted by the
// workflow core beyond the active session.
type PaymentOrder struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"` // minor currency units
	Currency   string `json:"currency"`
	GatewayKey string `json:"gateway_key"`
	Receipt    string `json:"receipt,omitempty"`
}

// PaymentReference is the gateway's asynchronous success payload.
type PaymentReference struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Signature string `json:"signature"`
}

// Prefill carries attendee details into the hosted checkout widget.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// VerifyPaymentRequest asks the backend to verify a payment signature and
// atomically create the registration it pays for.
type VerifyPaymentRequest struct {
	EventID string            `json:"event_id"`
	Ref     PaymentReference  `json:"ref"`
	Draft   RegistrationDraft `json:"draft"`
	Amount  int64             `json:"amount"`
}

// PaymentBackend is the workflow core's view of the order and verification API.
// VerifyPayment distinguishes two failure classes: ErrVerificationNetwork when
// the round-trip itself did not complete (fallback registration permitted) and
// ErrSignatureRejected when the backend explicitly rejected the payment
// (fatal, never retried).
type PaymentBackend interface {
	CreateOrder(ctx context.Context, session *Session, eventID string, amount int64) (*PaymentOrder, error)
	VerifyPayment(ctx context.Context, session *Session, req *VerifyPaymentRequest) (*Registration, error)
}

// CheckoutOpener opens the hosted gateway widget for an order. The outcome
// arrives asynchronously through the payment session's Handle* methods, not
// as a return value.
type CheckoutOpener interface {
	Open(ctx context.Context, order *PaymentOrder, prefill Prefill) error
}
