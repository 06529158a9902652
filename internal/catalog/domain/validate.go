package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyCatalog       = errors.New("empty_catalog")
	ErrMalformedTierTable = errors.New("malformed_tier_table")
	ErrInvalidDiscount    = errors.New("invalid_discount")
	ErrInvalidPricingMode = errors.New("invalid_pricing_mode")
)

// Validate checks the catalog invariants that must hold before any invoice
// calculation runs. A failure here is a catalog authoring bug and blocks
// invoice generation; the pricing engine itself never re-validates.
func (c *Catalog) Validate() error {
	if len(c.Packages) == 0 {
		return ErrEmptyCatalog
	}

	for code, pkg := range c.Packages {
		if len(pkg.GraduatedMWTiers) > 0 {
			if err := validateTierTable(pkg.GraduatedMWTiers); err != nil {
				return fmt.Errorf("package %s: %w", code, err)
			}
		}
	}

	for code, addon := range c.Addons {
		switch addon.Mode {
		case ModeFlat:
		case ModeComplexityTiered:
			if len(addon.ComplexityPrices) == 0 {
				return fmt.Errorf("addon %s: missing complexity prices: %w", code, ErrMalformedTierTable)
			}
		case ModeQuantityTieredFlat, ModeQuantityTieredGraduated:
			if err := validateTierTable(addon.Tiers); err != nil {
				return fmt.Errorf("addon %s: %w", code, err)
			}
		default:
			return fmt.Errorf("addon %s: mode %q: %w", code, addon.Mode, ErrInvalidPricingMode)
		}
	}

	if len(c.MinimumCharges) > 0 {
		tiers := make([]PricingTier, 0, len(c.MinimumCharges))
		for _, t := range c.MinimumCharges {
			tiers = append(tiers, PricingTier{MinQuantity: t.MinMW, MaxQuantity: t.MaxMW})
		}
		if err := validateTierTable(tiers); err != nil {
			return fmt.Errorf("minimum charge table: %w", err)
		}
	}

	if len(c.PortfolioDiscounts) > 0 {
		tiers := make([]PricingTier, 0, len(c.PortfolioDiscounts))
		for _, t := range c.PortfolioDiscounts {
			if t.DiscountPercent < 0 || t.DiscountPercent >= 1 {
				return fmt.Errorf("discount %.4f out of [0,1): %w", t.DiscountPercent, ErrInvalidDiscount)
			}
			tiers = append(tiers, PricingTier{MinQuantity: t.MinMW, MaxQuantity: t.MaxMW})
		}
		if err := validateTierTable(tiers); err != nil {
			return fmt.Errorf("portfolio discount table: %w", err)
		}
	}

	return nil
}

// validateTierTable enforces the shared bracket invariant: sorted by lower
// bound, contiguous, non-overlapping, unbounded tail.
func validateTierTable(tiers []PricingTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("empty tier table: %w", ErrMalformedTierTable)
	}

	sorted := make([]PricingTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })

	for i, tier := range sorted {
		last := i == len(sorted)-1
		if tier.MaxQuantity == nil {
			if !last {
				return fmt.Errorf("unbounded tier before tail: %w", ErrMalformedTierTable)
			}
			continue
		}
		if *tier.MaxQuantity < tier.MinQuantity {
			return fmt.Errorf("tier upper bound below lower bound: %w", ErrMalformedTierTable)
		}
		if last {
			return fmt.Errorf("last tier must be unbounded: %w", ErrMalformedTierTable)
		}
		next := sorted[i+1]
		if next.MinQuantity < *tier.MaxQuantity {
			return fmt.Errorf("tiers %q and %q overlap: %w", tier.Label, next.Label, ErrMalformedTierTable)
		}
	}

	return nil
}
