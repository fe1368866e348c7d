package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Generator validation error codes.
const (
	ErrorMissingBankDetails = "missing_bank_details"
	ErrorMissingLocation    = "missing_location_specification"
	ErrorClientNotFound     = "client_or_agency_not_found"
	ErrorGenerationFailed   = "generation_failed"
)

// Rejection reason codes for candidate timesheets.
const (
	RejectionNoBooking         = "no_booking_found"
	RejectionShiftNotFound     = "shift_not_found"
	RejectionShiftNotCompleted = "shift_not_completed"
)

// GenerateInvoicesRequest selects candidate timesheets either explicitly or
// through the auto-mode filter.
type GenerateInvoicesRequest struct {
	TimesheetIDs []string `json:"timesheet_ids,omitempty"`
	AutoMode     bool     `json:"auto_mode,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	PeriodStart  string   `json:"period_start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd    string   `json:"period_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CreatedInvoice summarises one draft produced by a generation run.
type CreatedInvoice struct {
	InvoiceID        string          `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	ClientName       string          `json:"client_name"`
	Total            decimal.Decimal `json:"total"`
	TimesheetsCount  int             `json:"timesheets_count"`
	TimesheetsLocked bool            `json:"timesheets_locked"`
	Status           string          `json:"status"`
}

// RejectedTimesheet explains why a candidate was excluded. Rejections are
// reported, never silently swallowed.
type RejectedTimesheet struct {
	TimesheetID string `json:"timesheet_id"`
	ShiftID     string `json:"shift_id,omitempty"`
	Reason      string `json:"reason"`
	ShiftStatus string `json:"shift_status,omitempty"`
	Explanation string `json:"rejection_explanation,omitempty"`
}

// ClientValidationError records a per-client-group blocking condition.
type ClientValidationError struct {
	ClientID            string   `json:"client_id"`
	ClientName          string   `json:"client_name,omitempty"`
	Error               string   `json:"error"`
	Message             string   `json:"message"`
	ActionRequired      string   `json:"action_required,omitempty"`
	TimesheetsAffected  int      `json:"timesheets_affected,omitempty"`
	MissingTimesheetIDs []string `json:"missing_timesheet_ids,omitempty"`
}

// ValidationSummary aggregates a generation run's outcome.
type ValidationSummary struct {
	TotalCandidates      int                 `json:"total_candidates"`
	ExcludedLocked       int                 `json:"excluded_locked"`
	ApprovedForInvoicing int                 `json:"approved_for_invoicing"`
	Rejected             int                 `json:"rejected"`
	BlockedByValidation  int                 `json:"blocked_by_validation"`
	RejectedDetails      []RejectedTimesheet `json:"rejected_details"`
}

// GenerateInvoicesResult is the generator response. A failure in one client
// group never removes the successes of another.
type GenerateInvoicesResult struct {
	Invoices          []CreatedInvoice        `json:"invoices"`
	ValidationErrors  []ClientValidationError `json:"validation_errors,omitempty"`
	ValidationSummary ValidationSummary       `json:"validation_summary"`
}

// SendInvoiceResult confirms a draft→sent transition.
type SendInvoiceResult struct {
	InvoiceID        string    `json:"invoice_id"`
	InvoiceNumber    string    `json:"invoice_number"`
	SentTo           string    `json:"sent_to"`
	SentAt           time.Time `json:"sent_at"`
	TimesheetsLocked int       `json:"timesheets_locked"`
	Message          string    `json:"message"`
}
