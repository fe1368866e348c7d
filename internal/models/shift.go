package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftStatus enumerates the scheduling lifecycle of a shift.
type ShiftStatus string

const (
	ShiftStatusOpen            ShiftStatus = "open"
	ShiftStatusAssigned        ShiftStatus = "assigned"
	ShiftStatusConfirmed       ShiftStatus = "confirmed"
	ShiftStatusInProgress      ShiftStatus = "in_progress"
	ShiftStatusAwaitingClosure ShiftStatus = "awaiting_admin_closure"
	ShiftStatusCompleted       ShiftStatus = "completed"
	ShiftStatusCancelled       ShiftStatus = "cancelled"
	ShiftStatusNoShow          ShiftStatus = "no_show"
	ShiftStatusDisputed        ShiftStatus = "disputed"
)

// Shift is the bookable unit of work. Scheduling collaborators own it until
// it is financially locked, after which monetary fields are immutable.
type Shift struct {
	ID                string          `db:"id" json:"id"`
	AgencyID          string          `db:"agency_id" json:"agencyId"`
	ClientID          string          `db:"client_id" json:"clientId"`
	RoleRequired      string          `db:"role_required" json:"roleRequired"`
	ShiftType         string          `db:"shift_type" json:"shiftType"`
	ShiftDate         time.Time       `db:"shift_date" json:"shiftDate"`
	DurationHours     decimal.Decimal `db:"duration_hours" json:"durationHours"`
	PayRate           decimal.Decimal `db:"pay_rate" json:"payRate"`
	ChargeRate        decimal.Decimal `db:"charge_rate" json:"chargeRate"`
	WorkLocation      *string         `db:"work_location" json:"workLocation,omitempty"`
	Status            ShiftStatus     `db:"status" json:"status"`
	FinancialLocked   bool            `db:"financial_locked" json:"financialLocked"`
	FinancialLockedAt *time.Time      `db:"financial_locked_at" json:"financialLockedAt,omitempty"`
	FinancialLockedBy *string         `db:"financial_locked_by" json:"financialLockedBy,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

// ShiftFinancialFields are the shift columns protected by the financial lock.
var ShiftFinancialFields = []string{"pay_rate", "charge_rate", "duration_hours", "work_location"}
