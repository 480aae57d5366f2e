package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"campusticketing/internal/domain"
)

// SessionState is the payment session's position in its state machine.
// Any state other than StateIdle means an attempt holds the single-flight
// guard; illegal transitions are rejected rather than checked ad hoc.
type SessionState int

const (
	StateIdle SessionState = iota
	StateOrderCreating
	StateOrderReady
	StateGatewayOpen
	StateVerifying
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOrderCreating:
		return "order_creating"
	case StateOrderReady:
		return "order_ready"
	case StateGatewayOpen:
		return "gateway_open"
	case StateVerifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// PaymentSession drives one paid registration attempt at a time:
// order creation, the hosted checkout, verification of the gateway's
// callback, and the fallback path when verification cannot be confirmed.
// The guard is released on every terminal transition.
type PaymentSession struct {
	catalog   domain.EventCatalog
	backend   domain.PaymentBackend
	checkout  domain.CheckoutOpener
	finalizer *Finalizer
	logger    *slog.Logger

	mu    sync.Mutex
	state SessionState

	// attempt context, set while the guard is held
	session *domain.Session
	event   *domain.Event
	draft   domain.RegistrationDraft
	order   *domain.PaymentOrder
}

func NewPaymentSession(catalog domain.EventCatalog, backend domain.PaymentBackend, checkout domain.CheckoutOpener, finalizer *Finalizer, logger *slog.Logger) *PaymentSession {
	return &PaymentSession{
		catalog:   catalog,
		backend:   backend,
		checkout:  checkout,
		finalizer: finalizer,
		logger:    logger,
	}
}

// State returns the session's current state.
func (p *PaymentSession) State() SessionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start begins a paid registration attempt: creates a single-use order for
// the event's current price and opens the hosted checkout. A second Start
// while one attempt is active returns ErrPaymentInProgress; it is rejected,
// not queued.
func (p *PaymentSession) Start(ctx context.Context, session *domain.Session, event *domain.Event, draft *domain.RegistrationDraft) error {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return domain.ErrPaymentInProgress
	}
	p.state = StateOrderCreating
	p.session = session
	p.event = event
	p.draft = *draft
	p.mu.Unlock()

	// Re-read the snapshot so the order amount reflects the current price,
	// never stale client state.
	fresh, err := p.catalog.Load(ctx, event.ID)
	if err != nil {
		p.reset()
		return fmt.Errorf("%w: %v", domain.ErrOrderCreation, err)
	}
	if fresh.Free() {
		p.reset()
		return fmt.Errorf("%w: event no longer requires payment", domain.ErrOrderCreation)
	}

	order, err := p.backend.CreateOrder(ctx, session, event.ID, fresh.Price)
	if err != nil {
		p.reset()
		return fmt.Errorf("create order: %w", err)
	}

	p.mu.Lock()
	p.state = StateOrderReady
	p.order = order
	p.event = fresh
	p.mu.Unlock()

	prefill := domain.Prefill{Name: draft.FullName, Email: draft.Email, Contact: draft.Phone}
	if err := p.checkout.Open(ctx, order, prefill); err != nil {
		p.reset()
		return fmt.Errorf("open checkout: %w", err)
	}

	p.mu.Lock()
	p.state = StateGatewayOpen
	p.mu.Unlock()
	p.logger.InfoContext(ctx, "gateway opened", "event_id", event.ID, "order_id", order.OrderID, "amount", order.Amount)
	return nil
}

// HandleSuccess consumes the gateway's success callback: verifies the payment
// and finalizes the registration. Verification failures split into two kinds:
// a network-level failure permits the one-time fallback registration, while an
// explicit signature rejection is fatal and never retried. Either way the
// guard is released before returning.
func (p *PaymentSession) HandleSuccess(ctx context.Context, ref domain.PaymentReference) (*Outcome, error) {
	p.mu.Lock()
	if p.state != StateGatewayOpen {
		state := p.state
		p.mu.Unlock()
		return nil, fmt.Errorf("unexpected gateway callback in state %s", state)
	}
	p.state = StateVerifying
	session, event, draft, order := p.session, p.event, p.draft, p.order
	p.mu.Unlock()

	defer p.reset()

	reg, err := p.backend.VerifyPayment(ctx, session, &domain.VerifyPaymentRequest{
		EventID: event.ID,
		Ref:     ref,
		Draft:   draft,
		Amount:  order.Amount,
	})
	switch {
	case err == nil:
		return p.finalizer.FinalizeVerified(ctx, session, event, &draft, reg, ref)
	case errors.Is(err, domain.ErrVerificationNetwork):
		p.logger.WarnContext(ctx, "verification unreachable, attempting fallback registration",
			"event_id", event.ID, "order_id", ref.OrderID)
		return p.finalizer.FinalizeFallback(ctx, session, event, &draft, ref)
	case errors.Is(err, domain.ErrSignatureRejected):
		p.logger.ErrorContext(ctx, "payment signature rejected",
			"event_id", event.ID, "order_id", ref.OrderID, "payment_id", ref.PaymentID)
		return nil, err
	default:
		return nil, fmt.Errorf("verify payment: %w", err)
	}
}

// HandleDismissed consumes a user-initiated dismissal of the checkout widget.
// The attempt is abandoned cleanly: the guard is released and the single-use
// order is dropped, so a retry starts from scratch with a new order.
func (p *PaymentSession) HandleDismissed() error {
	p.mu.Lock()
	if p.state != StateGatewayOpen {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	p.reset()
	return domain.ErrGatewayCancelled
}

// HandleFailed consumes a failed-charge report from the gateway.
func (p *PaymentSession) HandleFailed(cause error) error {
	p.mu.Lock()
	if p.state != StateGatewayOpen {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	p.reset()
	return fmt.Errorf("%w: %v", domain.ErrGatewayFailed, cause)
}

// reset releases the guard and drops the attempt context, leaving no order
// reference that could be silently resumed later.
func (p *PaymentSession) reset() {
	p.mu.Lock()
	p.state = StateIdle
	p.session = nil
	p.event = nil
	p.draft = domain.RegistrationDraft{}
	p.order = nil
	p.mu.Unlock()
}
