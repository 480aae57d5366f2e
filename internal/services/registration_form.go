package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"campusticketing/internal/domain"
)

// SubmissionResult reports what a successful submission led to.
type SubmissionResult struct {
	// Outcome is set on the free path, where registration completes
	// synchronously.
	Outcome *Outcome
	// PaymentPending is true on the paid path: the checkout was opened and
	// the final outcome arrives through the payment session's callbacks.
	PaymentPending bool
}

// FormController owns the transient registration draft for one event and
// decides the free vs. paid path on submission. Field errors are kept per
// field and cleared as the attendee edits.
type FormController struct {
	event     *domain.Event
	finalizer *Finalizer
	payments  *PaymentSession
	logger    *slog.Logger

	mu          sync.Mutex
	draft       domain.RegistrationDraft
	fieldErrors map[string]string
	inFlight    bool
}

func NewFormController(event *domain.Event, finalizer *Finalizer, payments *PaymentSession, logger *slog.Logger) *FormController {
	return &FormController{
		event:       event,
		finalizer:   finalizer,
		payments:    payments,
		logger:      logger,
		fieldErrors: make(map[string]string),
	}
}

// UpdateField mutates one draft field and clears its previous error, if any.
// The terms checkbox takes "true"/"false".
func (c *FormController) UpdateField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case "full_name":
		c.draft.FullName = value
	case "email":
		c.draft.Email = value
	case "phone":
		c.draft.Phone = value
	case "department":
		c.draft.Department = value
	case "year":
		c.draft.Year = value
	case "agree_to_terms":
		c.draft.AgreeToTerms = value == "true"
	default:
		return
	}
	delete(c.fieldErrors, name)
}

// Draft returns a copy of the current draft.
func (c *FormController) Draft() domain.RegistrationDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// FieldErrors returns a copy of the current per-field validation errors.
func (c *FormController) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := make(map[string]string, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		errs[k] = v
	}
	return errs
}

// ValidateAndSubmit validates the draft and, on success, routes it: free
// events finalize immediately, paid events start a payment session. While a
// submission is in flight further calls return ErrSubmissionInFlight, so a
// rapid double-click cannot issue duplicate network calls.
func (c *FormController) ValidateAndSubmit(ctx context.Context, session *domain.Session) (*SubmissionResult, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	}
	if errs := c.draft.Validate(); len(errs) > 0 {
		c.fieldErrors = errs
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %d field(s) invalid", domain.ErrValidation, len(errs))
	}
	c.inFlight = true
	draft := c.draft
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	if c.event.Free() {
		outcome, err := c.finalizer.FinalizeFree(ctx, session, c.event, &draft)
		if err != nil {
			return nil, err
		}
		c.discardDraft()
		return &SubmissionResult{Outcome: outcome}, nil
	}

	if err := c.payments.Start(ctx, session, c.event, &draft); err != nil {
		return nil, err
	}
	return &SubmissionResult{PaymentPending: true}, nil
}

// discardDraft drops the draft after a successful submission.
func (c *FormController) discardDraft() {
	c.mu.Lock()
	c.draft = domain.RegistrationDraft{}
	c.fieldErrors = make(map[string]string)
	c.mu.Unlock()
}
