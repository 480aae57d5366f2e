package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrCatalogUnreachable   = errors.New("event catalog unreachable")
	ErrEventFull            = errors.New("event is at capacity")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrRegistrationNotFound = errors.New("registration not found")
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
)

var (
	ErrOrderCreation       = errors.New("payment order creation failed")
	ErrPaymentInProgress   = errors.New("a payment is already in progress")
	ErrGatewayCancelled    = errors.New("payment cancelled")
	ErrGatewayFailed       = errors.New("payment failed at the gateway")
	ErrVerificationNetwork = errors.New("payment verification did not complete")
	ErrSignatureRejected   = errors.New("payment signature rejected")
)

var ErrUnauthorized = errors.New("unauthorized")

// CriticalPaymentMismatchError reports that a payment may have been collected
// while no registration exists for it: verification could not be completed and
// the fallback registration attempt also failed. It is never retried
// automatically; the attendee is told to contact support with the reference.
type CriticalPaymentMismatchError struct {
	EventID string
	Ref     PaymentReference
	Err     error
}

func (e *CriticalPaymentMismatchError) Error() string {
	return fmt.Sprintf("payment %s for event %s succeeded but registration could not be confirmed, contact support: %v",
		e.Ref.PaymentID, e.EventID, e.Err)
}

func (e *CriticalPaymentMismatchError) Unwrap() error {
	return e.Err
}
