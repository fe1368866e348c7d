package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stafflink/finance-api/internal/models"
)

// ClientRepository reads client rows.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs the repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// GetByID fetches a client by identifier.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	const query = `SELECT id, agency_id, name, billing_email, contact_email, payment_terms, contract_terms, created_at
	FROM clients WHERE id = $1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		return nil, err
	}
	return &client, nil
}
