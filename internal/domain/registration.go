package domain

import (
	"context"
	"strings"
	"time"
)

// RegistrationDraft is the transient, unsaved form state for one registration
// attempt. It is owned by the form controller and discarded on success or
// explicit cancel.
type RegistrationDraft struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Department   string `json:"department"`
	Year         string `json:"year"`
	AgreeToTerms bool   `json:"agree_to_terms"`
}

// Validate returns one message per invalid field, keyed by field name.
// An empty map means the draft may be submitted.
func (d *RegistrationDraft) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(d.FullName) == "" {
		errs["full_name"] = "full name is required"
	}
	if strings.TrimSpace(d.Email) == "" {
		errs["email"] = "email is required"
	} else if !strings.Contains(d.Email, "@") {
		errs["email"] = "email is not valid"
	}
	if strings.TrimSpace(d.Phone) == "" {
		errs["phone"] = "phone is required"
	}
	if strings.TrimSpace(d.Department) == "" {
		errs["department"] = "department is required"
	}
	if strings.TrimSpace(d.Year) == "" {
		errs["year"] = "year is required"
	}
	if !d.AgreeToTerms {
		errs["agree_to_terms"] = "you must agree to the terms"
	}
	return errs
}

// Registration is a persisted attendance entitlement for one (event, attendee)
// pair. PaymentID and OrderID are empty for free events.
// swagger:model Registration
type Registration struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	AttendeeID   string     `json:"attendee_id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Department   string     `json:"department"`
	Year         string     `json:"year"`
	AmountPaid   int64      `json:"amount_paid"`
	PaymentID    string     `json:"payment_id,omitempty"`
	OrderID      string     `json:"order_id,omitempty"`
	TicketNumber string     `json:"ticket_number"`
	Attended     bool       `json:"attended"`
	AttendedAt   *time.Time `json:"attended_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewRegistration builds an unpersisted Registration from a draft. ID and
// TicketNumber are set by the repository on create.
func NewRegistration(eventID, attendeeID string, draft *RegistrationDraft, amountPaid int64, paymentID, orderID string, createdAt time.Time) *Registration {
	return &Registration{
		EventID:    eventID,
		AttendeeID: attendeeID,
		FullName:   draft.FullName,
		Email:      draft.Email,
		Phone:      draft.Phone,
		Department: draft.Department,
		Year:       draft.Year,
		AmountPaid: amountPaid,
		PaymentID:  paymentID,
		OrderID:    orderID,
		CreatedAt:  createdAt,
	}
}

// RegistrationRequest is the payload for the plain registration endpoint.
// The payment reference fields are set only on the fallback path, when a
// payment succeeded but server-side verification could not be confirmed.
type RegistrationRequest struct {
	Draft     RegistrationDraft `json:"draft"`
	PaymentID string            `json:"payment_id,omitempty"`
	OrderID   string            `json:"order_id,omitempty"`
	Amount    int64             `json:"amount"`
}

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	// Create persists reg, assigning ID. Returns ErrAlreadyRegistered when
	// an (event, attendee) registration already exists.
	Create(ctx context.Context, reg *Registration) error
	GetByEventAndAttendee(ctx context.Context, eventID, attendeeID string) (*Registration, error)
	GetByTicketNumber(ctx context.Context, ticketNumber string) (*Registration, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	// MarkAttendance flips attended for the ticket. flipped reports whether
	// this call performed the false->true transition; a previously attended
	// ticket returns the registration with flipped false.
	MarkAttendance(ctx context.Context, ticketNumber string, at time.Time) (reg *Registration, flipped bool, err error)
}

// RegistrationBackend is the workflow core's view of the registration API.
type RegistrationBackend interface {
	Register(ctx context.Context, session *Session, eventID string, req *RegistrationRequest) (*Registration, error)
}

// RegistrarService is the server-side authority for orders, verification,
// registration, and attendance.
type RegistrarService interface {
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	CreateOrder(ctx context.Context, session *Session, eventID string, amount int64) (*PaymentOrder, error)
	// VerifyAndRegister checks the payment signature and, on success,
	// creates (or returns the existing) registration for the attendee.
	VerifyAndRegister(ctx context.Context, session *Session, req *VerifyPaymentRequest) (*Registration, error)
	// Register handles the free path and the verification fallback path.
	// created is false when the attendee was already registered.
	Register(ctx context.Context, session *Session, eventID string, req *RegistrationRequest) (*Registration, bool, error)
	MarkAttendance(ctx context.Context, ticketNumber string) (*CheckinResult, error)
}
