package service

import (
	"math"
	"sort"

	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
)

// tierMatch is the outcome of a non-graduated tier resolution.
type tierMatch struct {
	unitPrice float64
	label     string
	// fallback is set when the table had a gap and the last tier was used,
	// or when the table was empty and the caller-supplied price was used.
	// It exists to flag pricing-table authoring mistakes, not for callers.
	fallback bool
}

// sortTiers returns a copy sorted ascending by lower bound. Tier tables are
// validated sorted at load time, but the resolver never assumes it: custom
// per-contract tier overrides bypass catalog validation.
func sortTiers(tiers []catalogdomain.PricingTier) []catalogdomain.PricingTier {
	sorted := make([]catalogdomain.PricingTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })
	return sorted
}

// resolveTier finds the single bracket containing quantity and returns its
// unit price for the whole quantity (non-graduated). An empty table falls
// back to flatPrice; a gap falls back to the last tier. It never fails:
// pricing must not hard-fail at invoice time.
func resolveTier(quantity float64, tiers []catalogdomain.PricingTier, flatPrice float64) tierMatch {
	if len(tiers) == 0 {
		return tierMatch{unitPrice: flatPrice, fallback: true}
	}

	sorted := sortTiers(tiers)
	for _, tier := range sorted {
		if tier.Contains(quantity) {
			return tierMatch{unitPrice: tier.PricePerUnit, label: tier.Label}
		}
	}

	last := sorted[len(sorted)-1]
	return tierMatch{unitPrice: last.PricePerUnit, label: last.Label, fallback: true}
}

// graduatedCost accumulates cost bracket by bracket: each slice of the
// quantity is billed at its own bracket's rate (marginal-tier pricing).
func graduatedCost(quantity float64, tiers []catalogdomain.PricingTier) float64 {
	if quantity <= 0 || len(tiers) == 0 {
		return 0
	}

	sorted := sortTiers(tiers)

	var total float64
	remaining := quantity
	for _, tier := range sorted {
		if remaining <= 0 {
			break
		}
		upper := math.Inf(1)
		if tier.MaxQuantity != nil {
			upper = *tier.MaxQuantity
		}
		width := upper - tier.MinQuantity
		inTier := math.Min(remaining, width)
		if inTier <= 0 {
			continue
		}
		total += inTier * tier.PricePerUnit
		remaining -= inTier
	}
	if remaining > 0 {
		// Table did not reach quantity (bounded tail). Bill the excess at
		// the last bracket's rate rather than dropping it.
		total += remaining * sorted[len(sorted)-1].PricePerUnit
	}

	return total
}
