package services

import (
	"encoding/base64"
	"fmt"
	"strings"

	"campusticketing/internal/domain"
)

// qrPrefix versions the payload so a scanner can reject foreign codes before
// attempting a decode.
const qrPrefix = "CTKT1."

// IssueQR derives the scannable payload for a ticket number. The payload is
// an opaque reversible encoding; the same ticket number always yields the
// same payload.
func IssueQR(ticketNumber string) (string, error) {
	if strings.TrimSpace(ticketNumber) == "" {
		return "", fmt.Errorf("ticket number is required")
	}
	return qrPrefix + base64.RawURLEncoding.EncodeToString([]byte(ticketNumber)), nil
}

// DecodeQR recovers the ticket number from a scanned payload. Payloads that
// were not produced by IssueQR are rejected.
func DecodeQR(payload string) (string, error) {
	encoded, ok := strings.CutPrefix(payload, qrPrefix)
	if !ok {
		return "", fmt.Errorf("unrecognized ticket payload")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed ticket payload: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty ticket payload")
	}
	return string(raw), nil
}

// NewTicket issues the presentable ticket for a registration.
func NewTicket(reg *domain.Registration) (domain.Ticket, error) {
	payload, err := IssueQR(reg.TicketNumber)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("issue ticket: %w", err)
	}
	return domain.Ticket{TicketNumber: reg.TicketNumber, QRPayload: payload}, nil
}
