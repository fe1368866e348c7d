package models

import (
	"database/sql/driver"
	"time"
)

// Workflow priorities and statuses.
const (
	WorkflowPriorityMedium   = "medium"
	WorkflowPriorityHigh     = "high"
	WorkflowPriorityCritical = "critical"

	WorkflowStatusPending  = "pending"
	WorkflowStatusResolved = "resolved"
)

// Workflow types created by the financial core.
const (
	WorkflowTypeMissingBankDetails = "missing_bank_details"
	WorkflowTypeMissingStaffInfo   = "missing_staff_information"
	WorkflowTypeDataDrift          = "financial_data_drift"
)

// RelatedEntity points a workflow at the record needing attention.
type RelatedEntity struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

// Value implements driver.Valuer.
func (r RelatedEntity) Value() (driver.Value, error) { return jsonbValue(r) }

// Scan implements sql.Scanner.
func (r *RelatedEntity) Scan(src interface{}) error { return jsonbScan(src, r) }

// AdminWorkflow is a human-actionable task the core raises when it detects a
// condition it cannot resolve itself. Resolution is external.
type AdminWorkflow struct {
	ID            string        `db:"id" json:"id"`
	AgencyID      string        `db:"agency_id" json:"agencyId"`
	Type          string        `db:"type" json:"type"`
	Priority      string        `db:"priority" json:"priority"`
	Status        string        `db:"status" json:"status"`
	Title         string        `db:"title" json:"title"`
	Description   string        `db:"description" json:"description"`
	RelatedEntity RelatedEntity `db:"related_entity" json:"relatedEntity"`
	Deadline      *time.Time    `db:"deadline" json:"deadline,omitempty"`
	AutoCreated   bool          `db:"auto_created" json:"autoCreated"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}

// WorkflowFilter constrains workflow listing.
type WorkflowFilter struct {
	AgencyID string
	Status   string
	Priority string
	Type     string
	Limit    int
	Offset   int
}
