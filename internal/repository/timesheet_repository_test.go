package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stafflink/finance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timesheetRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "agency_id", "client_id", "staff_id", "staff_name", "booking_id", "shift_date",
		"total_hours", "pay_rate", "charge_rate", "staff_pay_amount", "client_charge_amount",
		"work_location", "status", "invoice_id", "financial_locked", "financial_locked_at",
		"financial_locked_by", "financial_snapshot", "created_at", "updated_at",
	}).AddRow(
		"ts-1", "agency-1", "client-1", "staff-1", "Amara Okafor", "shift-1", now,
		"12", "24.5", "32.5", "294", "390",
		nil, "approved", nil, false, nil,
		nil, nil, now, now,
	)
}

func TestTimesheetRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, agency_id, client_id")).
		WithArgs("ts-1").
		WillReturnRows(timesheetRows())

	ts, err := repo.GetByID(context.Background(), "ts-1")
	require.NoError(t, err)
	require.Equal(t, "ts-1", ts.ID)
	require.True(t, ts.TotalHours.Equal(decimal.NewFromInt(12)))
	require.False(t, ts.FinancialLocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryListCandidates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	mock.ExpectQuery("(?s)SELECT id, agency_id, client_id.+invoice_id IS NULL").
		WithArgs("approved", "client-1").
		WillReturnRows(timesheetRows())

	list, err := repo.ListCandidates(context.Background(), models.TimesheetFilter{
		Status:     models.TimesheetStatusApproved,
		Uninvoiced: true,
		ClientID:   "client-1",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryLinkToInvoiceRefusesLockedRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timesheets SET invoice_id")).
		WithArgs("ts-1", "inv-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.LinkToInvoice(context.Background(), "ts-1", "inv-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "locked or missing")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryLockIsConditional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	lockedAt := time.Date(2026, 3, 20, 14, 30, 0, 0, time.UTC)
	params := LockParams{
		TimesheetID: "ts-1",
		LockedAt:    lockedAt,
		LockedBy:    "user-9",
		Snapshot: models.FinancialSnapshot{
			TotalHours: decimal.NewFromInt(12),
			ChargeRate: decimal.NewFromFloat(32.5),
			LockedAt:   lockedAt,
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timesheets SET")).
		WithArgs("ts-1", string(models.TimesheetStatusInvoiced), lockedAt, "user-9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.Lock(context.Background(), params)
	require.NoError(t, err)
	require.True(t, applied)

	// Second attempt hits the financial_locked guard and affects no rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timesheets SET")).
		WithArgs("ts-1", string(models.TimesheetStatusInvoiced), lockedAt, "user-9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err = repo.Lock(context.Background(), params)
	require.NoError(t, err)
	require.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}
