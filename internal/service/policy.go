package service

import (
	"github.com/shopspring/decimal"

	"github.com/stafflink/finance-api/pkg/config"
)

// InvoicePolicy holds the billing constants shared by the validator,
// generator and sender. Values come from configuration with the contractual
// defaults as fallback.
type InvoicePolicy struct {
	VATRatePercent     decimal.Decimal
	RateTolerance      decimal.Decimal
	HoursAbsTolerance  decimal.Decimal
	HoursRelTolerance  decimal.Decimal
	NumberPrefix       string
	DefaultPaymentDays int
}

// PolicyFromConfig parses the configured policy, substituting defaults for
// anything missing or unparseable.
func PolicyFromConfig(cfg config.InvoicingConfig) InvoicePolicy {
	policy := InvoicePolicy{
		VATRatePercent:     parseDecimal(cfg.VATRatePercent, "20"),
		RateTolerance:      parseDecimal(cfg.RateTolerance, "0.01"),
		HoursAbsTolerance:  parseDecimal(cfg.HoursAbsTolerance, "0.25"),
		HoursRelTolerance:  parseDecimal(cfg.HoursRelTolerance, "0.1"),
		NumberPrefix:       cfg.NumberPrefix,
		DefaultPaymentDays: cfg.DefaultPaymentDays,
	}
	if policy.NumberPrefix == "" {
		policy.NumberPrefix = "INV"
	}
	if policy.DefaultPaymentDays <= 0 {
		policy.DefaultPaymentDays = 30
	}
	return policy
}

// DefaultPolicy returns the contractual defaults.
func DefaultPolicy() InvoicePolicy {
	return PolicyFromConfig(config.InvoicingConfig{})
}

func parseDecimal(raw, fallback string) decimal.Decimal {
	if raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(fallback)
}
