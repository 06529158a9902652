package service

import (
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
)

// applyPortfolioDiscount resolves the MW bracket containing totalMW and
// discounts the per-MW base rate by that bracket's fraction. The discount is
// a single percentage for the whole portfolio, never marginal. Discount
// fractions are range-checked at catalog load, not here.
func applyPortfolioDiscount(baseRatePerMW, totalMW float64, tiers []catalogdomain.PortfolioDiscountTier) (rate float64, applied bool) {
	if len(tiers) == 0 {
		return baseRatePerMW, false
	}

	matchTiers := make([]catalogdomain.PricingTier, 0, len(tiers))
	for _, t := range tiers {
		matchTiers = append(matchTiers, catalogdomain.PricingTier{
			MinQuantity:  t.MinMW,
			MaxQuantity:  t.MaxMW,
			PricePerUnit: t.DiscountPercent,
		})
	}

	match := resolveTier(totalMW, matchTiers, 0)
	if match.unitPrice <= 0 {
		return baseRatePerMW, false
	}
	return baseRatePerMW * (1 - match.unitPrice), true
}
