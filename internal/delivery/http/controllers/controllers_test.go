package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var testSession = &domain.Session{UserID: "user-123", Email: "asha@college.edu"}

var testDraft = domain.RegistrationDraft{
	FullName: "Asha Rao", Email: "asha@college.edu", Phone: "9999999999",
	Department: "CSE", Year: "2", AgreeToTerms: true,
}

// fakeRegistrarService implements domain.RegistrarService for handler tests.
type fakeRegistrarService struct {
	getEventErr    error
	getEventResult *domain.Event

	createOrderErr    error
	createOrderResult *domain.PaymentOrder
	lastOrderEventID  string
	lastOrderAmount   int64

	verifyErr     error
	verifyResult  *domain.Registration
	lastVerifyReq *domain.VerifyPaymentRequest

	registerErr     error
	registerResult  *domain.Registration
	registerCreated bool
	lastRegisterReq *domain.RegistrationRequest

	markErr    error
	markResult *domain.CheckinResult
	lastTicket string
}

func (f *fakeRegistrarService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if f.getEventErr != nil {
		return nil, f.getEventErr
	}
	return f.getEventResult, nil
}

func (f *fakeRegistrarService) CreateOrder(ctx context.Context, session *domain.Session, eventID string, amount int64) (*domain.PaymentOrder, error) {
	f.lastOrderEventID = eventID
	f.lastOrderAmount = amount
	if f.createOrderErr != nil {
		return nil, f.createOrderErr
	}
	return f.createOrderResult, nil
}

func (f *fakeRegistrarService) VerifyAndRegister(ctx context.Context, session *domain.Session, req *domain.VerifyPaymentRequest) (*domain.Registration, error) {
	f.lastVerifyReq = req
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func (f *fakeRegistrarService) Register(ctx context.Context, session *domain.Session, eventID string, req *domain.RegistrationRequest) (*domain.Registration, bool, error) {
	f.lastRegisterReq = req
	if f.registerErr != nil {
		return nil, false, f.registerErr
	}
	return f.registerResult, f.registerCreated, nil
}

func (f *fakeRegistrarService) MarkAttendance(ctx context.Context, ticketNumber string) (*domain.CheckinResult, error) {
	f.lastTicket = ticketNumber
	if f.markErr != nil {
		return nil, f.markErr
	}
	return f.markResult, nil
}

func authedRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.SetSession(req.Context(), testSession))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var resp helpers.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestGetEvent(t *testing.T) {
	svc := &fakeRegistrarService{getEventResult: &domain.Event{
		ID: "ev1", Title: "Tech Fest", Capacity: 100, Price: 500, RegisteredCount: 42,
	}}
	c := NewEventController(testLogger, svc)

	req := authedRequest(t, http.MethodGet, "/api/events/ev1", nil)
	req.SetPathValue("eventID", "ev1")
	rr := httptest.NewRecorder()
	c.GetEvent(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeEnvelope(t, rr)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Tech Fest", data["title"])
	assert.Equal(t, float64(500), data["price"])
	assert.Equal(t, float64(42), data["registered_count"])
}

func TestGetEventErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.ErrEventNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
		{"catalog down", fmt.Errorf("load event: %w", domain.ErrCatalogUnreachable), http.StatusBadGateway, helpers.ErrCodeUpstream},
		{"other failure", errors.New("db gone"), http.StatusInternalServerError, helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEventController(testLogger, &fakeRegistrarService{getEventErr: tt.err})

			req := authedRequest(t, http.MethodGet, "/api/events/ev1", nil)
			req.SetPathValue("eventID", "ev1")
			rr := httptest.NewRecorder()
			c.GetEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeEnvelope(t, rr)
			require.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestGetEventRequiresSession(t *testing.T) {
	c := NewEventController(testLogger, &fakeRegistrarService{})

	req := httptest.NewRequest(http.MethodGet, "/api/events/ev1", nil)
	req.SetPathValue("eventID", "ev1")
	rr := httptest.NewRecorder()
	c.GetEvent(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateOrder(t *testing.T) {
	svc := &fakeRegistrarService{createOrderResult: &domain.PaymentOrder{
		OrderID: "order_abc", Amount: 500, Currency: "INR", GatewayKey: "key_test", Receipt: "rcpt_1",
	}}
	c := NewPaymentController(testLogger, svc)

	req := authedRequest(t, http.MethodPost, "/api/payments/orders", CreateOrderRequest{EventID: "ev1", Amount: 500})
	rr := httptest.NewRecorder()
	c.CreateOrder(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeEnvelope(t, rr)
	require.True(t, resp.Success)
	assert.Equal(t, "ev1", svc.lastOrderEventID)
	assert.Equal(t, int64(500), svc.lastOrderAmount)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "order_abc", data["order_id"])
	assert.Equal(t, "key_test", data["gateway_key"])
}

func TestCreateOrderErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       CreateOrderRequest
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing event_id", CreateOrderRequest{}, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"event full", CreateOrderRequest{EventID: "ev1"}, domain.ErrEventFull, http.StatusConflict, helpers.ErrCodeConflict},
		{"unknown event", CreateOrderRequest{EventID: "nope"}, domain.ErrEventNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
		{"amount mismatch", CreateOrderRequest{EventID: "ev1", Amount: 1},
			fmt.Errorf("%w: amount 1 does not match the current price 500", domain.ErrOrderCreation),
			http.StatusBadRequest, helpers.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPaymentController(testLogger, &fakeRegistrarService{createOrderErr: tt.err})

			req := authedRequest(t, http.MethodPost, "/api/payments/orders", tt.body)
			rr := httptest.NewRecorder()
			c.CreateOrder(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeEnvelope(t, rr)
			require.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestVerifyPayment(t *testing.T) {
	svc := &fakeRegistrarService{verifyResult: &domain.Registration{
		ID: "reg-1", EventID: "ev1", TicketNumber: "TKT-AAAA1111", PaymentID: "pay_abc",
	}}
	c := NewPaymentController(testLogger, svc)

	body := VerifyPaymentBody{
		EventID: "ev1", PaymentID: "pay_abc", OrderID: "order_abc",
		Signature: "sig", Amount: 500, Draft: testDraft,
	}
	req := authedRequest(t, http.MethodPost, "/api/payments/verify", body)
	rr := httptest.NewRecorder()
	c.VerifyPayment(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeEnvelope(t, rr)
	require.True(t, resp.Success)
	require.Equal(t, "pay_abc", svc.lastVerifyReq.Ref.PaymentID)
	require.Equal(t, "order_abc", svc.lastVerifyReq.Ref.OrderID)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "TKT-AAAA1111", data["ticket_number"])
}

func TestVerifyPaymentRejection(t *testing.T) {
	c := NewPaymentController(testLogger, &fakeRegistrarService{verifyErr: domain.ErrSignatureRejected})

	body := VerifyPaymentBody{
		EventID: "ev1", PaymentID: "pay_abc", OrderID: "order_abc",
		Signature: "forged", Draft: testDraft,
	}
	req := authedRequest(t, http.MethodPost, "/api/payments/verify", body)
	rr := httptest.NewRecorder()
	c.VerifyPayment(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeEnvelope(t, rr)
	require.False(t, resp.Success)
	assert.Equal(t, helpers.ErrCodePaymentRejected, resp.Error.Code)
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	c := NewPaymentController(testLogger, &fakeRegistrarService{})

	req := authedRequest(t, http.MethodPost, "/api/payments/verify", VerifyPaymentBody{EventID: "ev1"})
	rr := httptest.NewRecorder()
	c.VerifyPayment(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterCreated(t *testing.T) {
	svc := &fakeRegistrarService{
		registerResult:  &domain.Registration{ID: "reg-1", EventID: "ev1", TicketNumber: "TKT-AAAA1111"},
		registerCreated: true,
	}
	c := NewRegistrationController(testLogger, svc)

	req := authedRequest(t, http.MethodPost, "/api/events/ev1/registrations", RegisterBody{Draft: testDraft})
	req.SetPathValue("eventID", "ev1")
	rr := httptest.NewRecorder()
	c.Register(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeEnvelope(t, rr)
	require.True(t, resp.Success)
}

func TestRegisterExistingReturnsOK(t *testing.T) {
	svc := &fakeRegistrarService{
		registerResult: &domain.Registration{ID: "reg-1", EventID: "ev1", TicketNumber: "TKT-AAAA1111"},
	}
	c := NewRegistrationController(testLogger, svc)

	req := authedRequest(t, http.MethodPost, "/api/events/ev1/registrations", RegisterBody{Draft: testDraft})
	req.SetPathValue("eventID", "ev1")
	rr := httptest.NewRecorder()
	c.Register(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRegisterFallbackCarriesPaymentReference(t *testing.T) {
	svc := &fakeRegistrarService{
		registerResult:  &domain.Registration{ID: "reg-1", PaymentID: "pay_abc"},
		registerCreated: true,
	}
	c := NewRegistrationController(testLogger, svc)

	body := RegisterBody{Draft: testDraft, PaymentID: "pay_abc", OrderID: "order_abc", Amount: 500}
	req := authedRequest(t, http.MethodPost, "/api/events/ev1/registrations", body)
	req.SetPathValue("eventID", "ev1")
	rr := httptest.NewRecorder()
	c.Register(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "pay_abc", svc.lastRegisterReq.PaymentID)
	require.Equal(t, "order_abc", svc.lastRegisterReq.OrderID)
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("%w: email: email is required", domain.ErrValidation), http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"unknown event", domain.ErrEventNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
		{"event full", domain.ErrEventFull, http.StatusConflict, helpers.ErrCodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRegistrationController(testLogger, &fakeRegistrarService{registerErr: tt.err})

			req := authedRequest(t, http.MethodPost, "/api/events/ev1/registrations", RegisterBody{Draft: testDraft})
			req.SetPathValue("eventID", "ev1")
			rr := httptest.NewRecorder()
			c.Register(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeEnvelope(t, rr)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestScan(t *testing.T) {
	svc := &fakeRegistrarService{markResult: &domain.CheckinResult{
		Status:  domain.CheckinSuccess,
		Student: &domain.AttendeeSummary{Name: "Asha Rao", TicketNumber: "TKT-AAAA1111"},
	}}
	c := NewAttendanceController(testLogger, svc)

	req := authedRequest(t, http.MethodPost, "/api/attendance/scan", ScanRequest{TicketNumber: "TKT-AAAA1111"})
	rr := httptest.NewRecorder()
	c.Scan(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeEnvelope(t, rr)
	require.True(t, resp.Success)
	require.Equal(t, "TKT-AAAA1111", svc.lastTicket)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "success", data["status"])
	student := data["student_data"].(map[string]any)
	assert.Equal(t, "Asha Rao", student["name"])
}

func TestScanDuplicate(t *testing.T) {
	svc := &fakeRegistrarService{markResult: &domain.CheckinResult{
		Status:  domain.CheckinDuplicate,
		Student: &domain.AttendeeSummary{Name: "Asha Rao", TicketNumber: "TKT-AAAA1111"},
	}}
	c := NewAttendanceController(testLogger, svc)

	req := authedRequest(t, http.MethodPost, "/api/attendance/scan", ScanRequest{TicketNumber: "TKT-AAAA1111"})
	rr := httptest.NewRecorder()
	c.Scan(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeEnvelope(t, rr)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "duplicate", data["status"])
}

func TestScanUnknownTicket(t *testing.T) {
	c := NewAttendanceController(testLogger, &fakeRegistrarService{markErr: domain.ErrTicketNotFound})

	req := authedRequest(t, http.MethodPost, "/api/attendance/scan", ScanRequest{TicketNumber: "TKT-NOPE0000"})
	rr := httptest.NewRecorder()
	c.Scan(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	resp := decodeEnvelope(t, rr)
	assert.Equal(t, helpers.ErrCodeNotFound, resp.Error.Code)
}

func TestScanEmptyBody(t *testing.T) {
	c := NewAttendanceController(testLogger, &fakeRegistrarService{})

	req := authedRequest(t, http.MethodPost, "/api/attendance/scan", ScanRequest{})
	rr := httptest.NewRecorder()
	c.Scan(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
