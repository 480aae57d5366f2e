package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"campusticketing/internal/adapters/gateway"
	"campusticketing/internal/domain"

	"github.com/stretchr/testify/require"
)

const testSecret = "test_gateway_secret"

type mockRegistrationRepo struct {
	byPair   map[string]*domain.Registration // eventID|attendeeID
	byTicket map[string]*domain.Registration
	count    int
	created  []*domain.Registration
}

func newMockRepo() *mockRegistrationRepo {
	return &mockRegistrationRepo{
		byPair:   make(map[string]*domain.Registration),
		byTicket: make(map[string]*domain.Registration),
	}
}

func pairKey(eventID, attendeeID string) string { return eventID + "|" + attendeeID }

func (m *mockRegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	key := pairKey(reg.EventID, reg.AttendeeID)
	if _, ok := m.byPair[key]; ok {
		return domain.ErrAlreadyRegistered
	}
	reg.ID = fmt.Sprintf("reg-%d", len(m.created)+1)
	m.byPair[key] = reg
	m.byTicket[reg.TicketNumber] = reg
	m.created = append(m.created, reg)
	return nil
}

func (m *mockRegistrationRepo) GetByEventAndAttendee(ctx context.Context, eventID, attendeeID string) (*domain.Registration, error) {
	if reg, ok := m.byPair[pairKey(eventID, attendeeID)]; ok {
		return reg, nil
	}
	return nil, domain.ErrRegistrationNotFound
}

func (m *mockRegistrationRepo) GetByTicketNumber(ctx context.Context, ticketNumber string) (*domain.Registration, error) {
	if reg, ok := m.byTicket[ticketNumber]; ok {
		return reg, nil
	}
	return nil, domain.ErrTicketNotFound
}

func (m *mockRegistrationRepo) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return m.count, nil
}

func (m *mockRegistrationRepo) MarkAttendance(ctx context.Context, ticketNumber string, at time.Time) (*domain.Registration, bool, error) {
	reg, ok := m.byTicket[ticketNumber]
	if !ok {
		return nil, false, domain.ErrTicketNotFound
	}
	if reg.Attended {
		return reg, false, nil
	}
	reg.Attended = true
	reg.AttendedAt = &at
	return reg, true, nil
}

type recordingEmail struct {
	sent []*domain.TicketEmailData
	err  error
}

func (r *recordingEmail) SendTicketConfirmation(ctx context.Context, data *domain.TicketEmailData) error {
	r.sent = append(r.sent, data)
	return r.err
}

func newRegistrarFixture(repo *mockRegistrationRepo, email *recordingEmail) domain.RegistrarService {
	catalog := &fakeCatalog{events: map[string]*domain.Event{"ev1": paidEvent, "ev2": freeEvent}}
	return NewRegistrarService(catalog, repo, email, testLogger, "key_test", testSecret, "INR")
}

func signedRef(orderID, paymentID string) domain.PaymentReference {
	return domain.PaymentReference{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: gateway.Sign(orderID, paymentID, []byte(testSecret)),
	}
}

func TestCreateOrderUsesCurrentPrice(t *testing.T) {
	svc := newRegistrarFixture(newMockRepo(), &recordingEmail{})

	order, err := svc.CreateOrder(context.Background(), session, "ev1", 500)
	require.NoError(t, err)
	require.Equal(t, int64(500), order.Amount)
	require.Equal(t, "INR", order.Currency)
	require.Equal(t, "key_test", order.GatewayKey)
	require.True(t, strings.HasPrefix(order.OrderID, "order_"))
	require.True(t, strings.HasPrefix(order.Receipt, "rcpt_"))
}

func TestCreateOrderRejectsMismatchedAmount(t *testing.T) {
	svc := newRegistrarFixture(newMockRepo(), &recordingEmail{})

	_, err := svc.CreateOrder(context.Background(), session, "ev1", 1)
	require.ErrorIs(t, err, domain.ErrOrderCreation)
}

func TestCreateOrderRejectsFreeAndFullEvents(t *testing.T) {
	repo := newMockRepo()
	svc := newRegistrarFixture(repo, &recordingEmail{})

	_, err := svc.CreateOrder(context.Background(), session, "ev2", 0)
	require.ErrorIs(t, err, domain.ErrOrderCreation)

	repo.count = paidEvent.Capacity
	_, err = svc.CreateOrder(context.Background(), session, "ev1", 500)
	require.ErrorIs(t, err, domain.ErrEventFull)
}

func TestVerifyAndRegister(t *testing.T) {
	repo := newMockRepo()
	email := &recordingEmail{}
	svc := newRegistrarFixture(repo, email)

	req := &domain.VerifyPaymentRequest{
		EventID: "ev1",
		Ref:     signedRef("order_abc", "pay_abc"),
		Draft:   okDraft,
		Amount:  500,
	}
	reg, err := svc.VerifyAndRegister(context.Background(), session, req)
	require.NoError(t, err)
	require.Equal(t, "pay_abc", reg.PaymentID)
	require.Equal(t, int64(500), reg.AmountPaid)
	require.True(t, strings.HasPrefix(reg.TicketNumber, "TKT-"))

	require.Len(t, email.sent, 1)
	require.Equal(t, reg.TicketNumber, email.sent[0].TicketNumber)
}

func TestVerifyAndRegisterIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	svc := newRegistrarFixture(repo, &recordingEmail{})

	req := &domain.VerifyPaymentRequest{EventID: "ev1", Ref: signedRef("order_abc", "pay_abc"), Draft: okDraft}
	first, err := svc.VerifyAndRegister(context.Background(), session, req)
	require.NoError(t, err)

	second, err := svc.VerifyAndRegister(context.Background(), session, req)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.TicketNumber, second.TicketNumber)
	require.Len(t, repo.created, 1)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	repo := newMockRepo()
	svc := newRegistrarFixture(repo, &recordingEmail{})

	req := &domain.VerifyPaymentRequest{
		EventID: "ev1",
		Ref:     domain.PaymentReference{OrderID: "order_abc", PaymentID: "pay_abc", Signature: "forged"},
		Draft:   okDraft,
	}
	_, err := svc.VerifyAndRegister(context.Background(), session, req)
	require.ErrorIs(t, err, domain.ErrSignatureRejected)
	require.Empty(t, repo.created)

	req.Ref.Signature = ""
	_, err = svc.VerifyAndRegister(context.Background(), session, req)
	require.ErrorIs(t, err, domain.ErrSignatureRejected)
}

func TestRegisterFreePath(t *testing.T) {
	repo := newMockRepo()
	svc := newRegistrarFixture(repo, &recordingEmail{})

	reg, created, err := svc.Register(context.Background(), session, "ev2", &domain.RegistrationRequest{Draft: okDraft})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, int64(0), reg.AmountPaid)

	again, created, err := svc.Register(context.Background(), session, "ev2", &domain.RegistrationRequest{Draft: okDraft})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, reg.ID, again.ID)
}

func TestRegisterValidatesDraft(t *testing.T) {
	svc := newRegistrarFixture(newMockRepo(), &recordingEmail{})

	bad := okDraft
	bad.Email = "not-an-address"
	_, _, err := svc.Register(context.Background(), session, "ev2", &domain.RegistrationRequest{Draft: bad})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegisterRefusesFullEvent(t *testing.T) {
	repo := newMockRepo()
	repo.count = freeEvent.Capacity
	svc := newRegistrarFixture(repo, &recordingEmail{})

	_, _, err := svc.Register(context.Background(), session, "ev2", &domain.RegistrationRequest{Draft: okDraft})
	require.ErrorIs(t, err, domain.ErrEventFull)
}

func TestRegisterFallbackBypassesCapacity(t *testing.T) {
	// The attendee has already been charged; a full event must not orphan
	// the payment.
	repo := newMockRepo()
	repo.count = paidEvent.Capacity
	svc := newRegistrarFixture(repo, &recordingEmail{})

	reg, created, err := svc.Register(context.Background(), session, "ev1", &domain.RegistrationRequest{
		Draft:     okDraft,
		PaymentID: "pay_abc",
		OrderID:   "order_abc",
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, int64(500), reg.AmountPaid)
	require.Equal(t, "pay_abc", reg.PaymentID)
}

func TestRegistrationSurvivesEmailFailure(t *testing.T) {
	repo := newMockRepo()
	email := &recordingEmail{err: errors.New("smtp down")}
	svc := newRegistrarFixture(repo, email)

	_, created, err := svc.Register(context.Background(), session, "ev2", &domain.RegistrationRequest{Draft: okDraft})
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, repo.created, 1)
}

func TestMarkAttendanceFlipsOnce(t *testing.T) {
	repo := newMockRepo()
	svc := newRegistrarFixture(repo, &recordingEmail{})

	reg, _, err := svc.Register(context.Background(), session, "ev2", &domain.RegistrationRequest{Draft: okDraft})
	require.NoError(t, err)

	first, err := svc.MarkAttendance(context.Background(), reg.TicketNumber)
	require.NoError(t, err)
	require.Equal(t, domain.CheckinSuccess, first.Status)
	require.Equal(t, "Asha Rao", first.Student.Name)

	second, err := svc.MarkAttendance(context.Background(), reg.TicketNumber)
	require.NoError(t, err)
	require.Equal(t, domain.CheckinDuplicate, second.Status)
	require.Equal(t, first.Student.TicketNumber, second.Student.TicketNumber)
}

func TestMarkAttendanceUnknownTicket(t *testing.T) {
	svc := newRegistrarFixture(newMockRepo(), &recordingEmail{})

	_, err := svc.MarkAttendance(context.Background(), "TKT-NOPE0000")
	require.ErrorIs(t, err, domain.ErrTicketNotFound)

	_, err = svc.MarkAttendance(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetEventOverlaysLocalCount(t *testing.T) {
	repo := newMockRepo()
	repo.count = 42
	svc := newRegistrarFixture(repo, &recordingEmail{})

	ev, err := svc.GetEvent(context.Background(), "ev1")
	require.NoError(t, err)
	require.Equal(t, 42, ev.RegisteredCount)
}
