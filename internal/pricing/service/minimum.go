package service

import (
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/pricing/domain"
)

// enforceMinimum compares the computed per-invoice subtotal against the
// minimum charge floor and substitutes the floor when it is higher.
// Applying it twice is a no-op.
//
// The floor comes from the MW-bracketed per-site table when one exists;
// the bracket's charge is interpreted per the site-charge frequency and
// scaled to the invoice period. With no table, the contract's flat minimum
// annual value scaled by the billing-frequency multiplier is the floor
// (the per-site-fee fallback policy).
func enforceMinimum(
	subtotal float64,
	totalMW float64,
	siteChargeFreq domain.SiteChargeFrequency,
	billingFreq domain.BillingFrequency,
	tiers []catalogdomain.MinimumChargeTier,
	siteCount int,
	minimumAnnualValue float64,
) (final float64, applied bool) {
	var minimum float64

	if len(tiers) > 0 && siteCount > 0 {
		matchTiers := make([]catalogdomain.PricingTier, 0, len(tiers))
		for _, t := range tiers {
			matchTiers = append(matchTiers, catalogdomain.PricingTier{
				MinQuantity:  t.MinMW,
				MaxQuantity:  t.MaxMW,
				PricePerUnit: t.ChargePerSite,
				Label:        t.Label,
			})
		}
		match := resolveTier(totalMW, matchTiers, 0)
		perSite := match.unitPrice * float64(siteCount)
		if siteChargeFreq == domain.SiteChargeMonthly {
			minimum = perSite * float64(billingFreq.MonthsInPeriod())
		} else {
			minimum = perSite * billingFreq.PeriodFraction()
		}
	} else {
		minimum = minimumAnnualValue * billingFreq.PeriodFraction()
	}

	if minimum > subtotal {
		return minimum, true
	}
	return subtotal, false
}
