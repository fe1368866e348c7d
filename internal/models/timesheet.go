package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// TimesheetStatus enumerates the timesheet lifecycle. The approved→invoiced
// edge is owned exclusively by the invoice sender; paid is set by payroll.
type TimesheetStatus string

const (
	TimesheetStatusDraft     TimesheetStatus = "draft"
	TimesheetStatusSubmitted TimesheetStatus = "submitted"
	TimesheetStatusApproved  TimesheetStatus = "approved"
	TimesheetStatusInvoiced  TimesheetStatus = "invoiced"
	TimesheetStatusPaid      TimesheetStatus = "paid"
	TimesheetStatusDisputed  TimesheetStatus = "disputed"
)

// FinancialSnapshot is the frozen copy of a timesheet's monetary fields taken
// at lock time. It is the ground truth drift detection compares against.
type FinancialSnapshot struct {
	TotalHours         decimal.Decimal `json:"total_hours"`
	PayRate            decimal.Decimal `json:"pay_rate"`
	ChargeRate         decimal.Decimal `json:"charge_rate"`
	StaffPayAmount     decimal.Decimal `json:"staff_pay_amount"`
	ClientChargeAmount decimal.Decimal `json:"client_charge_amount"`
	WorkLocation       *string         `json:"work_location,omitempty"`
	LockedAt           time.Time       `json:"locked_at"`
}

// Value implements driver.Valuer.
func (s FinancialSnapshot) Value() (driver.Value, error) { return jsonbValue(s) }

// Scan implements sql.Scanner.
func (s *FinancialSnapshot) Scan(src interface{}) error { return jsonbScan(src, s) }

// Timesheet records actual worked time against one shift via its booking
// reference.
type Timesheet struct {
	ID                 string             `db:"id" json:"id"`
	AgencyID           string             `db:"agency_id" json:"agencyId"`
	ClientID           string             `db:"client_id" json:"clientId"`
	StaffID            string             `db:"staff_id" json:"staffId"`
	StaffName          string             `db:"staff_name" json:"staffName"`
	BookingID          string             `db:"booking_id" json:"bookingId"`
	ShiftDate          time.Time          `db:"shift_date" json:"shiftDate"`
	TotalHours         decimal.Decimal    `db:"total_hours" json:"totalHours"`
	PayRate            decimal.Decimal    `db:"pay_rate" json:"payRate"`
	ChargeRate         decimal.Decimal    `db:"charge_rate" json:"chargeRate"`
	StaffPayAmount     decimal.Decimal    `db:"staff_pay_amount" json:"staffPayAmount"`
	ClientChargeAmount decimal.Decimal    `db:"client_charge_amount" json:"clientChargeAmount"`
	WorkLocation       *string            `db:"work_location" json:"workLocation,omitempty"`
	Status             TimesheetStatus    `db:"status" json:"status"`
	InvoiceID          *string            `db:"invoice_id" json:"invoiceId,omitempty"`
	FinancialLocked    bool               `db:"financial_locked" json:"financialLocked"`
	FinancialLockedAt  *time.Time         `db:"financial_locked_at" json:"financialLockedAt,omitempty"`
	FinancialLockedBy  *string            `db:"financial_locked_by" json:"financialLockedBy,omitempty"`
	FinancialSnapshot  *FinancialSnapshot `db:"financial_snapshot" json:"financialSnapshot,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updatedAt"`
}

// TimesheetFinancialFields are the timesheet columns protected by the
// financial lock.
var TimesheetFinancialFields = []string{"total_hours", "pay_rate", "charge_rate", "staff_pay_amount", "client_charge_amount"}

// TimesheetFilter constrains candidate selection for invoicing.
type TimesheetFilter struct {
	Status      TimesheetStatus
	Uninvoiced  bool
	ClientID    string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}
