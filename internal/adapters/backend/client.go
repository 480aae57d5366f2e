// Package backend implements the workflow core's HTTP client for the
// registration, verification, and attendance API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"campusticketing/internal/adapters/gateway"
	"campusticketing/internal/domain"
)

// Client talks to the registration backend. It implements
// domain.PaymentBackend, domain.RegistrationBackend, and
// domain.AttendanceBackend.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New returns a Client for the backend at baseURL. token, when non-empty, is
// sent as a bearer token on every request.
func New(baseURL, token string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, client: client}
}

// envelope is the backend's {success, data|error} response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *envelope) message() string {
	if e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return "unknown backend error"
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, *envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response: %w", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return resp, nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, &env, nil
}

type createOrderRequest struct {
	EventID    string `json:"event_id"`
	AttendeeID string `json:"attendee_id"`
	Amount     int64  `json:"amount"`
}

// CreateOrder asks the backend for a gateway order scoped to
// (event, attendee, amount). The response order is normalized from either of
// the backend's two shapes.
func (c *Client) CreateOrder(ctx context.Context, session *domain.Session, eventID string, amount int64) (*domain.PaymentOrder, error) {
	resp, env, err := c.post(ctx, "/api/payments/orders", createOrderRequest{
		EventID:    eventID,
		AttendeeID: session.UserID,
		Amount:     amount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOrderCreation, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderCreation, env.message())
	}
	order, err := gateway.NormalizeOrder(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOrderCreation, err)
	}
	return order, nil
}

type verifyPaymentRequest struct {
	EventID    string                   `json:"event_id"`
	AttendeeID string                   `json:"attendee_id"`
	PaymentID  string                   `json:"payment_id"`
	OrderID    string                   `json:"order_id"`
	Signature  string                   `json:"signature"`
	Amount     int64                    `json:"amount"`
	Draft      domain.RegistrationDraft `json:"draft"`
}

// VerifyPayment submits the gateway's payment reference for signature
// verification. A completed round-trip that rejects the payment maps to
// ErrSignatureRejected (fatal); a round-trip that did not complete maps to
// ErrVerificationNetwork, after which the caller may attempt the one-time
// fallback registration.
func (c *Client) VerifyPayment(ctx context.Context, session *domain.Session, req *domain.VerifyPaymentRequest) (*domain.Registration, error) {
	resp, env, err := c.post(ctx, "/api/payments/verify", verifyPaymentRequest{
		EventID:    req.EventID,
		AttendeeID: session.UserID,
		PaymentID:  req.Ref.PaymentID,
		OrderID:    req.Ref.OrderID,
		Signature:  req.Ref.Signature,
		Amount:     req.Amount,
		Draft:      req.Draft,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerificationNetwork, err)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: backend returned status %d", domain.ErrVerificationNetwork, resp.StatusCode)
	case resp.StatusCode >= 400 || !env.Success:
		return nil, fmt.Errorf("%w: %s", domain.ErrSignatureRejected, env.message())
	}

	// A verified payment normally comes back with the registration it
	// created; a missing registration is handled by the finalizer's
	// fallback path, not treated as an error here.
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}
	var reg domain.Registration
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode registration: %w", err)
	}
	return &reg, nil
}

// Register calls the plain registration endpoint: the free path, and the
// fallback path when req carries a payment reference.
func (c *Client) Register(ctx context.Context, session *domain.Session, eventID string, req *domain.RegistrationRequest) (*domain.Registration, error) {
	path := fmt.Sprintf("/api/events/%s/registrations", url.PathEscape(eventID))
	body := struct {
		AttendeeID string `json:"attendee_id"`
		*domain.RegistrationRequest
	}{AttendeeID: session.UserID, RegistrationRequest: req}

	resp, env, err := c.post(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("register for event: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusNotFound:
		return nil, domain.ErrEventNotFound
	case http.StatusConflict:
		return nil, domain.ErrEventFull
	default:
		return nil, fmt.Errorf("register for event: %s", env.message())
	}

	var reg domain.Registration
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode registration: %w", err)
	}
	return &reg, nil
}

type markAttendanceRequest struct {
	TicketNumber string `json:"ticket_number"`
}

// MarkAttendance records a scan for the ticket. The backend's classification
// (success or duplicate) is returned as-is; an unknown ticket maps to
// ErrTicketNotFound.
func (c *Client) MarkAttendance(ctx context.Context, ticketNumber string) (*domain.CheckinResult, error) {
	resp, env, err := c.post(ctx, "/api/attendance/scan", markAttendanceRequest{TicketNumber: ticketNumber})
	if err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrTicketNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("mark attendance: %s", env.message())
	}

	var result domain.CheckinResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode scan result: %w", err)
	}
	return &result, nil
}
