package models

import (
	"database/sql/driver"
	"time"
)

// PaymentTerms is the client's contractual payment window.
type PaymentTerms string

const (
	PaymentTermsNet7  PaymentTerms = "net_7"
	PaymentTermsNet14 PaymentTerms = "net_14"
	PaymentTermsNet30 PaymentTerms = "net_30"
	PaymentTermsNet60 PaymentTerms = "net_60"
)

// Days converts payment terms into a day count, falling back to the supplied
// default for unknown or empty terms.
func (p PaymentTerms) Days(fallback int) int {
	switch p {
	case PaymentTermsNet7:
		return 7
	case PaymentTermsNet14:
		return 14
	case PaymentTermsNet60:
		return 60
	default:
		return fallback
	}
}

// ContractTerms carries the invoicing-relevant clauses of a client contract.
type ContractTerms struct {
	RequireLocationSpecification bool `json:"require_location_specification"`
}

// Value implements driver.Valuer.
func (t ContractTerms) Value() (driver.Value, error) { return jsonbValue(t) }

// Scan implements sql.Scanner.
func (t *ContractTerms) Scan(src interface{}) error { return jsonbScan(src, t) }

// Client is a care home or similar site the agency bills.
type Client struct {
	ID            string         `db:"id" json:"id"`
	AgencyID      string         `db:"agency_id" json:"agencyId"`
	Name          string         `db:"name" json:"name"`
	BillingEmail  *string        `db:"billing_email" json:"billingEmail,omitempty"`
	ContactEmail  *string        `db:"contact_email" json:"contactEmail,omitempty"`
	PaymentTerms  PaymentTerms   `db:"payment_terms" json:"paymentTerms"`
	ContractTerms *ContractTerms `db:"contract_terms" json:"contractTerms,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// RequiresLocation reports whether every billed timesheet must carry a work
// location for this client.
func (c *Client) RequiresLocation() bool {
	return c != nil && c.ContractTerms != nil && c.ContractTerms.RequireLocationSpecification
}

// BillingRecipient returns the address invoices go to, preferring the billing
// email over the general contact.
func (c *Client) BillingRecipient() string {
	if c == nil {
		return ""
	}
	if c.BillingEmail != nil && *c.BillingEmail != "" {
		return *c.BillingEmail
	}
	if c.ContactEmail != nil && *c.ContactEmail != "" {
		return *c.ContactEmail
	}
	return ""
}
