package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stafflink/finance-api/internal/models"
)

const timesheetColumns = `id, agency_id, client_id, staff_id, staff_name, booking_id, shift_date,
       total_hours, pay_rate, charge_rate, staff_pay_amount, client_charge_amount,
       work_location, status, invoice_id, financial_locked, financial_locked_at,
       financial_locked_by, financial_snapshot, created_at, updated_at`

// TimesheetRepository persists timesheet rows. Update paths never clear
// financial_locked; the flag is monotonic by construction.
type TimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository constructs the repository.
func NewTimesheetRepository(db *sqlx.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// GetByID fetches a timesheet by identifier.
func (r *TimesheetRepository) GetByID(ctx context.Context, id string) (*models.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = $1`
	var timesheet models.Timesheet
	if err := r.db.GetContext(ctx, &timesheet, query, id); err != nil {
		return nil, err
	}
	return &timesheet, nil
}

// GetByIDs fetches the given timesheets, silently omitting unknown ids.
func (r *TimesheetRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Timesheet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+timesheetColumns+` FROM timesheets WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build timesheet query: %w", err)
	}
	query = r.db.Rebind(query)

	var timesheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &timesheets, query, args...); err != nil {
		return nil, fmt.Errorf("select timesheets: %w", err)
	}
	return timesheets, nil
}

// ListCandidates returns timesheets matching the invoicing filter. When
// Uninvoiced is set, rows already linked to an invoice are excluded even if
// the draft was never sent.
func (r *TimesheetRepository) ListCandidates(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + timesheetColumns + ` FROM timesheets`)

	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Uninvoiced {
		conditions = append(conditions, "invoice_id IS NULL")
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.PeriodStart != nil {
		args = append(args, *filter.PeriodStart)
		conditions = append(conditions, fmt.Sprintf("shift_date >= $%d", len(args)))
	}
	if filter.PeriodEnd != nil {
		args = append(args, *filter.PeriodEnd)
		conditions = append(conditions, fmt.Sprintf("shift_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY shift_date ASC, id ASC")

	var timesheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &timesheets, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list candidate timesheets: %w", err)
	}
	return timesheets, nil
}

// LinkToInvoice attaches a draft invoice id to a timesheet without touching
// the lock or status.
func (r *TimesheetRepository) LinkToInvoice(ctx context.Context, timesheetID, invoiceID string) error {
	const query = `UPDATE timesheets SET invoice_id = $2, updated_at = $3
	WHERE id = $1 AND financial_locked = FALSE`
	result, err := r.db.ExecContext(ctx, query, timesheetID, invoiceID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("link timesheet %s: %w", timesheetID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("link timesheet %s: %w", timesheetID, err)
	}
	if affected == 0 {
		return fmt.Errorf("timesheet %s is locked or missing", timesheetID)
	}
	return nil
}

// LockParams carries the lock metadata written on the approved→invoiced edge.
type LockParams struct {
	TimesheetID string
	LockedAt    time.Time
	LockedBy    string
	Snapshot    models.FinancialSnapshot
}

// Lock applies the one-way financial lock. The WHERE guard makes the
// operation idempotent under concurrent senders: a row that is already locked
// is left untouched and false is returned.
func (r *TimesheetRepository) Lock(ctx context.Context, params LockParams) (bool, error) {
	const query = `UPDATE timesheets SET
		status = $2,
		financial_locked = TRUE,
		financial_locked_at = $3,
		financial_locked_by = $4,
		financial_snapshot = $5,
		updated_at = $3
	WHERE id = $1 AND financial_locked = FALSE`
	result, err := r.db.ExecContext(ctx, query,
		params.TimesheetID,
		models.TimesheetStatusInvoiced,
		params.LockedAt,
		params.LockedBy,
		params.Snapshot,
	)
	if err != nil {
		return false, fmt.Errorf("lock timesheet %s: %w", params.TimesheetID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("lock timesheet %s: %w", params.TimesheetID, err)
	}
	return affected > 0, nil
}
