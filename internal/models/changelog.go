package models

import "time"

// RiskLevel grades how much scrutiny a change deserves.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Change types recorded by the financial core.
const (
	ChangeTypeTimesheetLock     = "timesheet_financial_lock"
	ChangeTypeInvoiceTransition = "invoice_status_transition"
	ChangeTypeDriftDetection    = "drift_detection"
)

// ChangeLog is an append-only, agency-scoped audit record. Entries are never
// mutated or deleted.
type ChangeLog struct {
	ID                 string    `db:"id" json:"id"`
	AgencyID           string    `db:"agency_id" json:"agencyId"`
	ChangeType         string    `db:"change_type" json:"changeType"`
	AffectedEntityType string    `db:"affected_entity_type" json:"affectedEntityType"`
	AffectedEntityID   string    `db:"affected_entity_id" json:"affectedEntityId"`
	OldValue           string    `db:"old_value" json:"oldValue"`
	NewValue           string    `db:"new_value" json:"newValue"`
	Reason             string    `db:"reason" json:"reason"`
	ChangedBy          string    `db:"changed_by" json:"changedBy"`
	ChangedByEmail     string    `db:"changed_by_email" json:"changedByEmail"`
	ChangedAt          time.Time `db:"changed_at" json:"changedAt"`
	RiskLevel          RiskLevel `db:"risk_level" json:"riskLevel"`
	FlaggedForReview   bool      `db:"flagged_for_review" json:"flaggedForReview"`
}

// ChangeLogFilter constrains audit trail listing.
type ChangeLogFilter struct {
	AgencyID   string
	EntityType string
	EntityID   string
	RiskLevel  RiskLevel
	Limit      int
	Offset     int
}
