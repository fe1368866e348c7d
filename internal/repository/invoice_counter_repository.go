package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InvoiceCounterRepository hands out sequential invoice numbers scoped per
// agency per calendar month. The upsert increments atomically, so concurrent
// generation runs can never mint the same sequence twice.
type InvoiceCounterRepository struct {
	db *sqlx.DB
}

// NewInvoiceCounterRepository constructs the repository.
func NewInvoiceCounterRepository(db *sqlx.DB) *InvoiceCounterRepository {
	return &InvoiceCounterRepository{db: db}
}

// NextSequence returns the next sequence number for (agency, period), where
// period is the YYMM bucket the invoice is dated in.
func (r *InvoiceCounterRepository) NextSequence(ctx context.Context, agencyID, period string) (int, error) {
	const query = `INSERT INTO invoice_counters (agency_id, period, seq)
	VALUES ($1, $2, 1)
	ON CONFLICT (agency_id, period)
	DO UPDATE SET seq = invoice_counters.seq + 1
	RETURNING seq`
	var seq int
	if err := r.db.GetContext(ctx, &seq, query, agencyID, period); err != nil {
		return 0, fmt.Errorf("next invoice sequence for %s/%s: %w", agencyID, period, err)
	}
	return seq, nil
}
