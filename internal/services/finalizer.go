package services

import (
	"context"
	"fmt"
	"log/slog"

	"campusticketing/internal/domain"
)

// Outcome bundles the persisted registration with its presentable ticket.
type Outcome struct {
	Registration *domain.Registration
	Ticket       domain.Ticket
	// Fallback is true when the registration was created through the
	// fallback path rather than by payment verification.
	Fallback bool
}

// Finalizer converts a successful free submission or a verified payment into
// a persisted registration and ticket. Every registration-creating call in
// the workflow core funnels through it, which is what keeps "at most one
// registration per successful submission" enforceable.
type Finalizer struct {
	backend domain.RegistrationBackend
	logger  *slog.Logger
}

func NewFinalizer(backend domain.RegistrationBackend, logger *slog.Logger) *Finalizer {
	return &Finalizer{backend: backend, logger: logger}
}

// FinalizeFree registers the attendee for a free event.
func (f *Finalizer) FinalizeFree(ctx context.Context, session *domain.Session, event *domain.Event, draft *domain.RegistrationDraft) (*Outcome, error) {
	reg, err := f.backend.Register(ctx, session, event.ID, &domain.RegistrationRequest{
		Draft:  *draft,
		Amount: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("free registration: %w", err)
	}
	return f.outcome(reg, false)
}

// FinalizeVerified completes a registration after the backend verified the
// payment. When verification succeeded but the backend did not create the
// registration, the payment reference is attached to a fallback registration
// so the payment is not lost.
func (f *Finalizer) FinalizeVerified(ctx context.Context, session *domain.Session, event *domain.Event, draft *domain.RegistrationDraft, reg *domain.Registration, ref domain.PaymentReference) (*Outcome, error) {
	if reg == nil {
		f.logger.WarnContext(ctx, "verification returned no registration, using fallback",
			"event_id", event.ID, "order_id", ref.OrderID)
		return f.FinalizeFallback(ctx, session, event, draft, ref)
	}
	return f.outcome(reg, false)
}

// FinalizeFallback registers with the payment reference attached. It is called
// at most once per attempt, only when a payment succeeded but verification
// could not be confirmed at the network level. A failure here means a payment
// may exist with no registration, which is critical and never retried.
func (f *Finalizer) FinalizeFallback(ctx context.Context, session *domain.Session, event *domain.Event, draft *domain.RegistrationDraft, ref domain.PaymentReference) (*Outcome, error) {
	reg, err := f.backend.Register(ctx, session, event.ID, &domain.RegistrationRequest{
		Draft:     *draft,
		PaymentID: ref.PaymentID,
		OrderID:   ref.OrderID,
		Amount:    event.Price,
	})
	if err != nil {
		f.logger.ErrorContext(ctx, "fallback registration failed after successful payment",
			"event_id", event.ID, "order_id", ref.OrderID, "payment_id", ref.PaymentID, "err", err)
		return nil, &domain.CriticalPaymentMismatchError{EventID: event.ID, Ref: ref, Err: err}
	}
	return f.outcome(reg, true)
}

func (f *Finalizer) outcome(reg *domain.Registration, fallback bool) (*Outcome, error) {
	ticket, err := NewTicket(reg)
	if err != nil {
		return nil, err
	}
	return &Outcome{Registration: reg, Ticket: ticket, Fallback: fallback}, nil
}
