package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates the billing lifecycle. Only draft→sent is handled
// by this service; later transitions belong to payment reconciliation.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusViewed        InvoiceStatus = "viewed"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
)

// LineItem is one billed timesheet on an invoice. Hours, rate and amount are
// frozen copies taken at generation time.
type LineItem struct {
	TimesheetID  string          `json:"timesheet_id"`
	Description  string          `json:"description"`
	StaffName    string          `json:"staff_name"`
	Role         string          `json:"role"`
	ShiftType    string          `json:"shift_type"`
	ShiftDate    string          `json:"shift_date"`
	Hours        decimal.Decimal `json:"hours"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
	WorkLocation *string         `json:"work_location,omitempty"`
}

// LineItems is the JSONB-backed line item collection.
type LineItems []LineItem

// Value implements driver.Valuer.
func (l LineItems) Value() (driver.Value, error) { return jsonbValue(l) }

// Scan implements sql.Scanner.
func (l *LineItems) Scan(src interface{}) error { return jsonbScan(src, l) }

// SentSnapshot is the immutable record of an invoice's key facts captured at
// the moment of sending.
type SentSnapshot struct {
	InvoiceNumber  string          `json:"invoice_number"`
	Total          decimal.Decimal `json:"total"`
	LineItems      LineItems       `json:"line_items"`
	SentAt         time.Time       `json:"sent_at"`
	RecipientEmail string          `json:"recipient_email"`
	ClientName     string          `json:"client_name"`
	AgencyName     string          `json:"agency_name"`
}

// Value implements driver.Valuer.
func (s SentSnapshot) Value() (driver.Value, error) { return jsonbValue(s) }

// Scan implements sql.Scanner.
func (s *SentSnapshot) Scan(src interface{}) error { return jsonbScan(src, s) }

// Invoice is one billing run for one client.
type Invoice struct {
	ID            string          `db:"id" json:"id"`
	AgencyID      string          `db:"agency_id" json:"agencyId"`
	ClientID      string          `db:"client_id" json:"clientId"`
	InvoiceNumber string          `db:"invoice_number" json:"invoiceNumber"`
	InvoiceDate   time.Time       `db:"invoice_date" json:"invoiceDate"`
	DueDate       time.Time       `db:"due_date" json:"dueDate"`
	PeriodStart   time.Time       `db:"period_start" json:"periodStart"`
	PeriodEnd     time.Time       `db:"period_end" json:"periodEnd"`
	Status        InvoiceStatus   `db:"status" json:"status"`
	LineItems     LineItems       `db:"line_items" json:"lineItems"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	VATRate       decimal.Decimal `db:"vat_rate" json:"vatRate"`
	VATAmount     decimal.Decimal `db:"vat_amount" json:"vatAmount"`
	Total         decimal.Decimal `db:"total" json:"total"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amountPaid"`
	BalanceDue    decimal.Decimal `db:"balance_due" json:"balanceDue"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	SentAt        *time.Time      `db:"sent_at" json:"sentAt,omitempty"`
	SentSnapshot  *SentSnapshot   `db:"immutable_sent_snapshot" json:"immutableSentSnapshot,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// InvoiceFilter constrains invoice listing.
type InvoiceFilter struct {
	AgencyID    string
	ClientID    string
	Status      InvoiceStatus
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Limit       int
	Offset      int
}
