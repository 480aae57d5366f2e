package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusticketing/internal/adapters/gateway"
	"campusticketing/internal/domain"
)

type registrarService struct {
	catalog       domain.EventCatalog
	registrations domain.RegistrationRepository
	email         domain.EmailService
	logger        *slog.Logger

	gatewayKeyID  string
	gatewaySecret []byte
	currency      string
}

// NewRegistrarService creates the server-side authority for orders,
// verification, registration, and attendance.
func NewRegistrarService(
	catalog domain.EventCatalog,
	registrations domain.RegistrationRepository,
	email domain.EmailService,
	logger *slog.Logger,
	gatewayKeyID, gatewaySecret, currency string,
) domain.RegistrarService {
	return &registrarService{
		catalog:       catalog,
		registrations: registrations,
		email:         email,
		logger:        logger,
		gatewayKeyID:  gatewayKeyID,
		gatewaySecret: []byte(gatewaySecret),
		currency:      currency,
	}
}

func (s *registrarService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ev, err := s.catalog.Load(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	// The catalog's count can lag behind; our own rows are authoritative
	// for events registered through this service.
	count, err := s.registrations.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if count > ev.RegisteredCount {
		ev.RegisteredCount = count
	}
	return ev, nil
}

// CreateOrder mints a single-use gateway order for the event's current price.
// The amount is recomputed server-side; a client amount that disagrees with
// the current price is rejected rather than honored.
func (s *registrarService) CreateOrder(ctx context.Context, session *domain.Session, eventID string, amount int64) (*domain.PaymentOrder, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Free() {
		return nil, fmt.Errorf("%w: event does not require payment", domain.ErrOrderCreation)
	}
	if ev.Full() {
		return nil, domain.ErrEventFull
	}
	if amount != 0 && amount != ev.Price {
		return nil, fmt.Errorf("%w: amount %d does not match the current price %d", domain.ErrOrderCreation, amount, ev.Price)
	}

	order := &domain.PaymentOrder{
		OrderID:    "order_" + randomToken(14),
		Amount:     ev.Price,
		Currency:   s.currency,
		GatewayKey: s.gatewayKeyID,
		Receipt:    "rcpt_" + randomToken(8),
	}
	s.logger.InfoContext(ctx, "payment order created",
		"event_id", eventID, "attendee_id", session.UserID, "order_id", order.OrderID, "amount", order.Amount)
	return order, nil
}

// VerifyAndRegister checks the payment signature and creates the registration
// the payment pays for. An existing registration for the pair is returned
// unchanged, which keeps the verify path and the fallback path mutually
// exclusive per attempt.
func (s *registrarService) VerifyAndRegister(ctx context.Context, session *domain.Session, req *domain.VerifyPaymentRequest) (*domain.Registration, error) {
	if req.Ref.OrderID == "" || req.Ref.PaymentID == "" || req.Ref.Signature == "" {
		return nil, fmt.Errorf("%w: missing payment fields", domain.ErrSignatureRejected)
	}
	if !gateway.VerifySignature(req.Ref, s.gatewaySecret) {
		s.logger.WarnContext(ctx, "payment signature mismatch",
			"event_id", req.EventID, "order_id", req.Ref.OrderID, "payment_id", req.Ref.PaymentID)
		return nil, domain.ErrSignatureRejected
	}

	ev, err := s.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	return s.createOrReturn(ctx, session, ev, &req.Draft, ev.Price, req.Ref.PaymentID, req.Ref.OrderID)
}

// Register handles the free path and the verification fallback path (when
// req carries a payment reference). created is false for an attendee who was
// already registered.
func (s *registrarService) Register(ctx context.Context, session *domain.Session, eventID string, req *domain.RegistrationRequest) (*domain.Registration, bool, error) {
	if errs := req.Draft.Validate(); len(errs) > 0 {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrValidation, joinFieldErrors(errs))
	}

	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, false, err
	}

	// A fallback registration carries a paid reference and must not be
	// refused for capacity: the attendee has already been charged.
	if req.PaymentID == "" && ev.Full() {
		return nil, false, domain.ErrEventFull
	}

	amount := int64(0)
	if req.PaymentID != "" {
		amount = ev.Price
	}

	if existing, err := s.registrations.GetByEventAndAttendee(ctx, eventID, session.UserID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, domain.ErrRegistrationNotFound) {
		return nil, false, fmt.Errorf("get registration: %w", err)
	}

	reg, err := s.createOrReturn(ctx, session, ev, &req.Draft, amount, req.PaymentID, req.OrderID)
	if err != nil {
		return nil, false, err
	}
	return reg, true, nil
}

func (s *registrarService) createOrReturn(ctx context.Context, session *domain.Session, ev *domain.Event, draft *domain.RegistrationDraft, amount int64, paymentID, orderID string) (*domain.Registration, error) {
	reg := domain.NewRegistration(ev.ID, session.UserID, draft, amount, paymentID, orderID, time.Now())
	reg.TicketNumber = domain.NewTicketNumber()

	err := s.registrations.Create(ctx, reg)
	if errors.Is(err, domain.ErrAlreadyRegistered) {
		existing, getErr := s.registrations.GetByEventAndAttendee(ctx, ev.ID, session.UserID)
		if getErr != nil {
			return nil, fmt.Errorf("get existing registration: %w", getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}

	if err := s.email.SendTicketConfirmation(ctx, &domain.TicketEmailData{
		Email:        reg.Email,
		FullName:     reg.FullName,
		EventTitle:   ev.Title,
		TicketNumber: reg.TicketNumber,
	}); err != nil {
		// The registration stands regardless of email delivery.
		s.logger.WarnContext(ctx, "ticket confirmation email failed", "email", reg.Email, "err", err)
	}
	return reg, nil
}

// MarkAttendance performs the idempotent check-in: the first scan flips
// attended, every later scan classifies as duplicate with the original
// attendee summary.
func (s *registrarService) MarkAttendance(ctx context.Context, ticketNumber string) (*domain.CheckinResult, error) {
	ticketNumber = strings.TrimSpace(ticketNumber)
	if ticketNumber == "" {
		return nil, fmt.Errorf("%w: ticket number is required", domain.ErrValidation)
	}

	reg, flipped, err := s.registrations.MarkAttendance(ctx, ticketNumber, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, fmt.Errorf("mark attendance: %w", err)
	}

	status := domain.CheckinSuccess
	if !flipped {
		status = domain.CheckinDuplicate
	}
	return &domain.CheckinResult{
		Status: status,
		Student: &domain.AttendeeSummary{
			Name:         reg.FullName,
			TicketNumber: reg.TicketNumber,
			Department:   reg.Department,
			Year:         reg.Year,
		},
	}, nil
}

func randomToken(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(id) {
		n = len(id)
	}
	return id[:n]
}

func joinFieldErrors(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}
