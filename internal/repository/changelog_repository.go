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

// ChangeLogRepository appends audit records. There is deliberately no update
// or delete path; the change log is append-only.
type ChangeLogRepository struct {
	db *sqlx.DB
}

// NewChangeLogRepository constructs the repository.
func NewChangeLogRepository(db *sqlx.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

// Create appends a change log entry.
func (r *ChangeLogRepository) Create(ctx context.Context, entry *models.ChangeLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO change_logs
	(id, agency_id, change_type, affected_entity_type, affected_entity_id, old_value, new_value,
	 reason, changed_by, changed_by_email, changed_at, risk_level, flagged_for_review)
	VALUES (:id, :agency_id, :change_type, :affected_entity_type, :affected_entity_id, :old_value, :new_value,
	 :reason, :changed_by, :changed_by_email, :changed_at, :risk_level, :flagged_for_review)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create change log: %w", err)
	}
	return nil
}

// List returns change log entries matching the filter (latest first).
func (r *ChangeLogRepository) List(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, agency_id, change_type, affected_entity_type, affected_entity_id,
       old_value, new_value, reason, changed_by, changed_by_email, changed_at, risk_level, flagged_for_review
	FROM change_logs`)

	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.AgencyID != "" {
		args = append(args, filter.AgencyID)
		conditions = append(conditions, fmt.Sprintf("agency_id = $%d", len(args)))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("affected_entity_type = $%d", len(args)))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		conditions = append(conditions, fmt.Sprintf("affected_entity_id = $%d", len(args)))
	}
	if filter.RiskLevel != "" {
		args = append(args, filter.RiskLevel)
		conditions = append(conditions, fmt.Sprintf("risk_level = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY changed_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var entries []models.ChangeLog
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list change logs: %w", err)
	}
	return entries, nil
}
