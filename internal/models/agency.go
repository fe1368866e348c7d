package models

import (
	"database/sql/driver"
	"time"
)

// BankDetails is the agency's payment destination embedded in invoices.
type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	SortCode      string `json:"sort_code"`
	BankName      string `json:"bank_name,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	SwiftBIC      string `json:"swift_bic,omitempty"`
}

// Complete reports whether the mandatory fields for issuing an invoice are
// all present.
func (b *BankDetails) Complete() bool {
	return b != nil && b.AccountName != "" && b.AccountNumber != "" && b.SortCode != ""
}

// Value implements driver.Valuer.
func (b BankDetails) Value() (driver.Value, error) { return jsonbValue(b) }

// Scan implements sql.Scanner.
func (b *BankDetails) Scan(src interface{}) error { return jsonbScan(src, b) }

// Agency is the staffing agency issuing invoices.
type Agency struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	ContactEmail string       `db:"contact_email" json:"contactEmail"`
	LogoURL      *string      `db:"logo_url" json:"logoUrl,omitempty"`
	BankDetails  *BankDetails `db:"bank_details" json:"bankDetails,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}
