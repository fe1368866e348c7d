package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stafflink/finance-api/internal/models"
)

// AgencyRepository reads agency rows.
type AgencyRepository struct {
	db *sqlx.DB
}

// NewAgencyRepository constructs the repository.
func NewAgencyRepository(db *sqlx.DB) *AgencyRepository {
	return &AgencyRepository{db: db}
}

// GetByID fetches an agency by identifier.
func (r *AgencyRepository) GetByID(ctx context.Context, id string) (*models.Agency, error) {
	const query = `SELECT id, name, contact_email, logo_url, bank_details, created_at
	FROM agencies WHERE id = $1`
	var agency models.Agency
	if err := r.db.GetContext(ctx, &agency, query, id); err != nil {
		return nil, err
	}
	return &agency, nil
}
