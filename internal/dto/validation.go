package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Validation operation modes.
const (
	OperationPreInvoice     = "pre_invoice"
	OperationEditValidation = "edit_validation"
	OperationDetectDrift    = "detect_drift"
)

// Issue severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

// Issue codes emitted by the validator.
const (
	IssueAlreadyInvoiced  = "already_invoiced"
	IssueMissingShift     = "missing_shift"
	IssueRateMismatch     = "rate_mismatch"
	IssueHoursMismatch    = "hours_mismatch"
	IssueMissingLocation  = "missing_location"
	IssueTimesheetDeleted = "timesheet_deleted"
	IssueHoursChanged     = "hours_changed"
	IssueRateChanged      = "rate_changed"
	IssueLocationChanged  = "location_changed"
	IssueSnapshotMismatch = "snapshot_mismatch"
)

// Batch recommendations.
const (
	RecommendationProceed        = "PROCEED"
	RecommendationWarn           = "WARN_BEFORE_GENERATING"
	RecommendationBlock          = "BLOCK_INVOICE_GENERATION"
	RecommendationAmendNow       = "CREATE_INVOICE_AMENDMENT_IMMEDIATELY"
	RecommendationNoActionNeeded = "NO_ACTION_NEEDED"
)

// Edit validation outcomes.
const (
	ReasonLockViolation   = "FINANCIAL_LOCK_VIOLATION"
	ReasonNotFound        = "not_found"
	ActionCreateAmendment = "CREATE_AMENDMENT"
)

// ValidateRequest is the single entry point for all three validator modes.
type ValidateRequest struct {
	OperationType   string                 `json:"operation_type" binding:"required"`
	TimesheetIDs    []string               `json:"timesheet_ids,omitempty"`
	EntityType      string                 `json:"entity_type,omitempty"`
	EntityID        string                 `json:"entity_id,omitempty"`
	ProposedChanges map[string]interface{} `json:"proposed_changes,omitempty"`
	InvoiceID       string                 `json:"invoice_id,omitempty"`
}

// FinancialIssue is one structured finding. Old/new values are attached for
// drift issues, rates/variance for pre-invoice mismatches.
type FinancialIssue struct {
	Severity      string           `json:"severity"`
	Issue         string           `json:"issue"`
	Message       string           `json:"message"`
	TimesheetID   string           `json:"timesheet_id,omitempty"`
	ShiftID       string           `json:"shift_id,omitempty"`
	ShiftRate     *decimal.Decimal `json:"shift_rate,omitempty"`
	TimesheetRate *decimal.Decimal `json:"timesheet_rate,omitempty"`
	Variance      *decimal.Decimal `json:"variance,omitempty"`
	InvoiceValue  interface{}      `json:"invoice_value,omitempty"`
	CurrentValue  interface{}      `json:"current_value,omitempty"`
}

// PreInvoiceResult is the mode A response.
type PreInvoiceResult struct {
	Success          bool             `json:"success"`
	ValidationPassed bool             `json:"validation_passed"`
	Issues           []FinancialIssue `json:"issues"`
	CriticalCount    int              `json:"critical_count"`
	WarningCount     int              `json:"warning_count"`
	Recommendation   string           `json:"recommendation"`
}

// EditValidationResult is the mode B response.
type EditValidationResult struct {
	Allowed        bool       `json:"allowed"`
	Reason         string     `json:"reason,omitempty"`
	Message        string     `json:"message,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`
	LockedBy       *string    `json:"locked_by,omitempty"`
	InvoiceID      *string    `json:"invoice_id,omitempty"`
	ActionRequired string     `json:"action_required,omitempty"`
}

// DriftResult is the mode C response.
type DriftResult struct {
	HasDrift       bool             `json:"has_drift"`
	DriftIssues    []FinancialIssue `json:"drift_issues"`
	CriticalCount  int              `json:"critical_count"`
	Recommendation string           `json:"recommendation"`
}
