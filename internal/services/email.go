package services

import (
	"context"
	"fmt"

	"campusticketing/internal/domain"
)

type emailService struct {
	mailer domain.Mailer
}

// NewEmailService returns an EmailService that uses the given Mailer.
func NewEmailService(mailer domain.Mailer) domain.EmailService {
	return &emailService{mailer: mailer}
}

// SendTicketConfirmation sends the attendee their ticket number for an event.
func (s *emailService) SendTicketConfirmation(ctx context.Context, data *domain.TicketEmailData) error {
	if data == nil {
		return fmt.Errorf("ticket email data is nil")
	}
	subject := fmt.Sprintf("Your ticket for %s", data.EventTitle)
	text := fmt.Sprintf(
		"Hi %s,\n\nYou're registered for %s.\nYour ticket number is %s. Show it (or its QR code) at the door.\n",
		data.FullName, data.EventTitle, data.TicketNumber,
	)
	if err := s.mailer.Send(data.Email, subject, "", text); err != nil {
		return fmt.Errorf("failed to send ticket confirmation: %w", err)
	}
	return nil
}
