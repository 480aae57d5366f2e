package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"campusticketing/internal/domain"
)

// uniqueViolation is the postgres error code raised by the unique index on
// (event_id, attendee_id).
const uniqueViolation = "23505"

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

const registrationColumns = `id, event_id, attendee_id, full_name, email, phone, department, year,
		amount_paid, payment_id, order_id, ticket_number, attended, attended_at, created_at`

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (event_id, attendee_id, full_name, email, phone, department, year,
			amount_paid, payment_id, order_id, ticket_number, attended, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false, $12)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.AttendeeID, reg.FullName, reg.Email, reg.Phone, reg.Department, reg.Year,
		reg.AmountPaid, nullString(reg.PaymentID), nullString(reg.OrderID), reg.TicketNumber, reg.CreatedAt,
	).Scan(&reg.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *registrationRepository) GetByEventAndAttendee(ctx context.Context, eventID, attendeeID string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND attendee_id = $2
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, eventID, attendeeID), domain.ErrRegistrationNotFound)
}

func (r *registrationRepository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE ticket_number = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, ticketNumber), domain.ErrTicketNotFound)
}

func (r *registrationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkAttendance performs the first-scan-wins transition. The conditional
// UPDATE is the authority: of any number of concurrent scans for the same
// ticket, exactly one matches a row, and the rest re-read and classify as
// duplicates.
func (r *registrationRepository) MarkAttendance(ctx context.Context, ticketNumber string, at time.Time) (*domain.Registration, bool, error) {
	query := `
		UPDATE registrations
		SET attended = true, attended_at = $2
		WHERE ticket_number = $1 AND attended = false
		RETURNING ` + registrationColumns + `
	`
	reg, err := r.scanOne(r.DB.QueryRowContext(ctx, query, ticketNumber, at), sql.ErrNoRows)
	if err == nil {
		return reg, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// No row flipped: either already attended or the ticket doesn't exist.
	reg, err = r.GetByTicketNumber(ctx, ticketNumber)
	if err != nil {
		return nil, false, err
	}
	return reg, false, nil
}

func (r *registrationRepository) scanOne(row *sql.Row, notFound error) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var paymentID, orderID sql.NullString
	var attendedAt sql.NullTime
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.AttendeeID, &reg.FullName, &reg.Email, &reg.Phone,
		&reg.Department, &reg.Year, &reg.AmountPaid, &paymentID, &orderID,
		&reg.TicketNumber, &reg.Attended, &attendedAt, &reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	reg.PaymentID = paymentID.String
	reg.OrderID = orderID.String
	if attendedAt.Valid {
		t := attendedAt.Time
		reg.AttendedAt = &t
	}
	return reg, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
