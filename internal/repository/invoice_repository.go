package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stafflink/finance-api/internal/models"
)

const invoiceColumns = `id, agency_id, client_id, invoice_number, invoice_date, due_date,
       period_start, period_end, status, line_items, subtotal, vat_rate, vat_amount,
       total, amount_paid, balance_due, notes, sent_at, immutable_sent_snapshot,
       created_at, updated_at`

// InvoiceRepository persists invoice rows.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs the repository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts a new invoice row.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	const query = `INSERT INTO invoices
	(id, agency_id, client_id, invoice_number, invoice_date, due_date, period_start, period_end,
	 status, line_items, subtotal, vat_rate, vat_amount, total, amount_paid, balance_due,
	 notes, sent_at, immutable_sent_snapshot, created_at, updated_at)
	VALUES (:id, :agency_id, :client_id, :invoice_number, :invoice_date, :due_date, :period_start, :period_end,
	 :status, :line_items, :subtotal, :vat_rate, :vat_amount, :total, :amount_paid, :balance_due,
	 :notes, :sent_at, :immutable_sent_snapshot, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// GetByID fetches an invoice by identifier.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns invoices matching the filter (latest first).
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + invoiceColumns + ` FROM invoices`)

	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.AgencyID != "" {
		args = append(args, filter.AgencyID)
		conditions = append(conditions, fmt.Sprintf("agency_id = $%d", len(args)))
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PeriodStart != nil {
		args = append(args, *filter.PeriodStart)
		conditions = append(conditions, fmt.Sprintf("invoice_date >= $%d", len(args)))
	}
	if filter.PeriodEnd != nil {
		args = append(args, *filter.PeriodEnd)
		conditions = append(conditions, fmt.Sprintf("invoice_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY invoice_date DESC, invoice_number DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// MarkSent flips a draft invoice to sent and attaches the immutable snapshot.
// The status guard makes concurrent senders race-safe: exactly one caller
// observes true, later ones false.
func (r *InvoiceRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, snapshot models.SentSnapshot) (bool, error) {
	const query = `UPDATE invoices SET
		status = $2,
		sent_at = $3,
		immutable_sent_snapshot = $4,
		updated_at = $3
	WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, models.InvoiceStatusSent, sentAt, snapshot, models.InvoiceStatusDraft)
	if err != nil {
		return false, fmt.Errorf("mark invoice %s sent: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark invoice %s sent: %w", id, err)
	}
	return affected > 0, nil
}
