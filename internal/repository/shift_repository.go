package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stafflink/finance-api/internal/models"
)

const shiftColumns = `id, agency_id, client_id, role_required, shift_type, shift_date,
       duration_hours, pay_rate, charge_rate, work_location, status,
       financial_locked, financial_locked_at, financial_locked_by, created_at, updated_at`

// ShiftRepository reads shift rows. The financial core never mutates shifts
// directly; it only reads them to validate timesheets against.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// GetByID fetches a shift by identifier. Timesheet booking references resolve
// to shift ids, so this also serves booking lookups.
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*models.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// FindByDateAndClient resolves a shift by its (date, client) pair. Fallback
// for legacy timesheets whose booking reference no longer resolves.
func (r *ShiftRepository) FindByDateAndClient(ctx context.Context, date time.Time, clientID string) (*models.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
	WHERE shift_date = $1 AND client_id = $2
	ORDER BY created_at ASC LIMIT 1`
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, date, clientID); err != nil {
		return nil, err
	}
	return &shift, nil
}

// GetByIDs fetches the given shifts keyed by id.
func (r *ShiftRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Shift, error) {
	if len(ids) == 0 {
		return map[string]models.Shift{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+shiftColumns+` FROM shifts WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build shift query: %w", err)
	}
	query = r.db.Rebind(query)

	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("select shifts: %w", err)
	}
	byID := make(map[string]models.Shift, len(shifts))
	for _, shift := range shifts {
		byID[shift.ID] = shift
	}
	return byID, nil
}
