// Package domain defines the pure invoice-calculation contract: the pricing
// configuration snapshot taken from a contract and the composed result.
package domain

import (
	"errors"

	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
)

// BillingFrequency is how often a contract is invoiced.
type BillingFrequency string

const (
	FrequencyMonthly   BillingFrequency = "MONTHLY"
	FrequencyQuarterly BillingFrequency = "QUARTERLY"
	FrequencyBiannual  BillingFrequency = "BIANNUAL"
	FrequencyAnnual    BillingFrequency = "ANNUAL"
)

// PeriodFraction converts an annual rate into a per-invoice amount.
func (f BillingFrequency) PeriodFraction() float64 {
	switch f {
	case FrequencyMonthly:
		return 1.0 / 12.0
	case FrequencyQuarterly:
		return 1.0 / 4.0
	case FrequencyBiannual:
		return 1.0 / 2.0
	case FrequencyAnnual:
		return 1.0
	default:
		return 0
	}
}

// AnnualFactor converts a per-invoice amount back to an annualized amount
// for ARR reporting. It is the reciprocal of PeriodFraction.
func (f BillingFrequency) AnnualFactor() float64 {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencyBiannual:
		return 2
	case FrequencyAnnual:
		return 1
	default:
		return 0
	}
}

// MonthsInPeriod returns the number of months one invoice covers.
func (f BillingFrequency) MonthsInPeriod() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyBiannual:
		return 6
	case FrequencyAnnual:
		return 12
	default:
		return 0
	}
}

// Valid reports whether the frequency is one of the supported values.
func (f BillingFrequency) Valid() bool {
	return f.PeriodFraction() > 0
}

// SiteChargeFrequency is the cadence of the per-site minimum charge table.
type SiteChargeFrequency string

const (
	SiteChargeMonthly SiteChargeFrequency = "MONTHLY"
	SiteChargeAnnual  SiteChargeFrequency = "ANNUAL"
)

// ModuleSelection is one selected module on a contract. OnTrial is resolved
// by the caller against the contract's trial window before calculation.
type ModuleSelection struct {
	Code        string   `json:"code"`
	CustomPrice *float64 `json:"custom_price,omitempty"`
	OnTrial     bool     `json:"on_trial,omitempty"`
}

// AddonSelection is one selected addon on a contract.
type AddonSelection struct {
	Code        string                      `json:"code"`
	Quantity    float64                     `json:"quantity"`
	Complexity  catalogdomain.Complexity    `json:"complexity,omitempty"`
	CustomPrice *float64                    `json:"custom_price,omitempty"`
	CustomTiers []catalogdomain.PricingTier `json:"custom_tiers,omitempty"`
}

// CalculationRequest is the read-only pricing configuration snapshot the
// composer consumes. TotalMW and SiteCount arrive from the external asset
// monitoring sync (or manual override); the composer does not fetch them.
type CalculationRequest struct {
	PackageCode         string              `json:"package_code"`
	TotalMW             float64             `json:"total_mw"`
	SiteCount           int                 `json:"site_count"`
	Modules             []ModuleSelection   `json:"modules,omitempty"`
	Addons              []AddonSelection    `json:"addons,omitempty"`
	Frequency           BillingFrequency    `json:"frequency"`
	SiteChargeFrequency SiteChargeFrequency `json:"site_charge_frequency"`
	MinimumAnnualValue  float64             `json:"minimum_annual_value"`
	Currency            string              `json:"currency"`
}

// LineItem is one composed invoice line. LineTotal is rounded to 2 decimals
// at presentation; intermediate math stays at full precision.
type LineItem struct {
	Label     string                    `json:"label"`
	Quantity  float64                   `json:"quantity"`
	UnitPrice float64                   `json:"unit_price"`
	LineTotal float64                   `json:"line_total"`
	Revenue   catalogdomain.RevenueType `json:"revenue_type"`
}

// Result is the composer's return contract.
type Result struct {
	LineItems            []LineItem `json:"line_items"`
	Subtotal             float64    `json:"subtotal"`
	MinimumChargeApplied bool       `json:"minimum_charge_applied"`
	DiscountApplied      bool       `json:"discount_applied"`
	TotalPrice           float64    `json:"total_price"`
	Currency             string     `json:"currency"`
}

// Service is the invoice composer. Calculate is pure: it reads the request
// and the injected catalog snapshot, performs no I/O and is safe to invoke
// concurrently.
type Service interface {
	Calculate(req CalculationRequest) (*Result, error)
}

var (
	ErrUnknownPackage   = errors.New("unknown_package")
	ErrInvalidFrequency = errors.New("invalid_frequency")
)
