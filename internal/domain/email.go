package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// TicketEmailData holds data for the ticket confirmation email.
type TicketEmailData struct {
	Email        string
	FullName     string
	EventTitle   string
	TicketNumber string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendTicketConfirmation(ctx context.Context, data *TicketEmailData) error
}
