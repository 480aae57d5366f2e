package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Ticket is derived from a registration once issued; it is not stored
// separately. QRPayload is an opaque reversible encoding of TicketNumber.
type Ticket struct {
	TicketNumber string `json:"ticket_number"`
	QRPayload    string `json:"qr_payload"`
}

// NewTicketNumber generates a ticket number in the TKT-XXXXXXXX form.
func NewTicketNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TKT-" + id[:8]
}
