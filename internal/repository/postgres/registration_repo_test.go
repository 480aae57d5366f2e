package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"campusticketing/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var regColumns = []string{
	"id", "event_id", "attendee_id", "full_name", "email", "phone", "department", "year",
	"amount_paid", "payment_id", "order_id", "ticket_number", "attended", "attended_at", "created_at",
}

func regRow(id string, attended bool, attendedAt any) *sqlmock.Rows {
	return sqlmock.NewRows(regColumns).AddRow(
		id, "ev1", "user-1", "Asha Rao", "asha@college.edu", "9999999999", "CSE", "2",
		int64(500), "pay_1", "order_1", "TKT-AAAA1111", attended, attendedAt,
		time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	)
}

func TestRegistrationRepository_Create(t *testing.T) {
	ctx := context.Background()
	draft := &domain.RegistrationDraft{
		FullName: "Asha Rao", Email: "asha@college.edu", Phone: "9999999999",
		Department: "CSE", Year: "2", AgreeToTerms: true,
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registrations`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("reg-uuid-1"))
			},
			wantID: "reg-uuid-1",
		},
		{
			name: "duplicate pair",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registrations`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrAlreadyRegistered,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registrations`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewRegistrationRepository(db)
			reg := domain.NewRegistration("ev1", "user-1", draft, 500, "pay_1", "order_1", time.Now())
			reg.TicketNumber = "TKT-AAAA1111"

			err = repo.Create(ctx, reg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, reg.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationRepository_MarkAttendance(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("first scan flips", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE registrations`).
			WithArgs("TKT-AAAA1111", at).
			WillReturnRows(regRow("reg-1", true, at))

		repo := NewRegistrationRepository(db)
		reg, flipped, err := repo.MarkAttendance(ctx, "TKT-AAAA1111", at)
		require.NoError(t, err)
		require.True(t, flipped)
		require.True(t, reg.Attended)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second scan is a duplicate, not re-written", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE registrations`).
			WithArgs("TKT-AAAA1111", at).
			WillReturnRows(sqlmock.NewRows(regColumns)) // no row matched
		mock.ExpectQuery(`SELECT (.+) FROM registrations`).
			WithArgs("TKT-AAAA1111").
			WillReturnRows(regRow("reg-1", true, at.Add(-time.Hour)))

		repo := NewRegistrationRepository(db)
		reg, flipped, err := repo.MarkAttendance(ctx, "TKT-AAAA1111", at)
		require.NoError(t, err)
		require.False(t, flipped)
		require.True(t, reg.Attended)
		require.NotNil(t, reg.AttendedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown ticket", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE registrations`).
			WillReturnRows(sqlmock.NewRows(regColumns))
		mock.ExpectQuery(`SELECT (.+) FROM registrations`).
			WillReturnError(sql.ErrNoRows)

		repo := NewRegistrationRepository(db)
		_, _, err = repo.MarkAttendance(ctx, "XXXX", at)
		require.ErrorIs(t, err, domain.ErrTicketNotFound)
	})
}

func TestRegistrationRepository_GetByEventAndAttendee(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM registrations`).
		WithArgs("ev1", "user-1").
		WillReturnRows(sqlmock.NewRows(regColumns))

	repo := NewRegistrationRepository(db)
	_, err = repo.GetByEventAndAttendee(context.Background(), "ev1", "user-1")
	require.ErrorIs(t, err, domain.ErrRegistrationNotFound)
}

func TestRegistrationRepository_CountByEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM registrations`).
		WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	repo := NewRegistrationRepository(db)
	count, err := repo.CountByEvent(context.Background(), "ev1")
	require.NoError(t, err)
	require.Equal(t, 42, count)
}
