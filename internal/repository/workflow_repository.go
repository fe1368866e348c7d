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

// WorkflowRepository persists admin workflow tasks. The core only creates and
// lists them; resolution happens in the back-office UI.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create inserts a new workflow task.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.AdminWorkflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}
	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusPending
	}
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO admin_workflows
	(id, agency_id, type, priority, status, title, description, related_entity, deadline, auto_created, created_at)
	VALUES (:id, :agency_id, :type, :priority, :status, :title, :description, :related_entity, :deadline, :auto_created, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workflow); err != nil {
		return fmt.Errorf("create admin workflow: %w", err)
	}
	return nil
}

// List returns workflows matching the filter (newest first).
func (r *WorkflowRepository) List(ctx context.Context, filter models.WorkflowFilter) ([]models.AdminWorkflow, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, agency_id, type, priority, status, title, description,
       related_entity, deadline, auto_created, created_at
	FROM admin_workflows`)

	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.AgencyID != "" {
		args = append(args, filter.AgencyID)
		conditions = append(conditions, fmt.Sprintf("agency_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var workflows []models.AdminWorkflow
	if err := r.db.SelectContext(ctx, &workflows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list admin workflows: %w", err)
	}
	return workflows, nil
}
