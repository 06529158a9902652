package service

import (
	"testing"

	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func quantityTiers() []catalogdomain.PricingTier {
	return []catalogdomain.PricingTier{
		{MinQuantity: 0, MaxQuantity: f64(10), PricePerUnit: 50, Label: "small"},
		{MinQuantity: 11, PricePerUnit: 30, Label: "large"},
	}
}

func mwTiers() []catalogdomain.PricingTier {
	return []catalogdomain.PricingTier{
		{MinQuantity: 0, MaxQuantity: f64(5), PricePerUnit: 1000},
		{MinQuantity: 5, PricePerUnit: 800},
	}
}

func TestResolveTier_WholeQuantityAtMatchedRate(t *testing.T) {
	// Non-graduated: the matched tier prices every unit, not just the
	// units inside the bracket.
	match := resolveTier(15, quantityTiers(), 0)
	assert.False(t, match.fallback)
	assert.Equal(t, 30.0, match.unitPrice)
	assert.Equal(t, 450.0, match.unitPrice*15)
}

func TestResolveTier_ZeroQuantityMatchesFirstTier(t *testing.T) {
	match := resolveTier(0, quantityTiers(), 0)
	assert.False(t, match.fallback)
	assert.Equal(t, 50.0, match.unitPrice)
}

func TestResolveTier_EmptyTableFallsBackToFlatPrice(t *testing.T) {
	match := resolveTier(7, nil, 12.5)
	assert.True(t, match.fallback)
	assert.Equal(t, 12.5, match.unitPrice)
}

func TestResolveTier_GapFallsBackToLastTier(t *testing.T) {
	// 10 < q < 11 falls in the authoring gap between the brackets.
	match := resolveTier(10.5, quantityTiers(), 0)
	assert.True(t, match.fallback)
	assert.Equal(t, 30.0, match.unitPrice)
}

func TestResolveTier_UnsortedInput(t *testing.T) {
	tiers := []catalogdomain.PricingTier{
		{MinQuantity: 11, PricePerUnit: 30},
		{MinQuantity: 0, MaxQuantity: f64(10), PricePerUnit: 50},
	}
	match := resolveTier(4, tiers, 0)
	assert.False(t, match.fallback)
	assert.Equal(t, 50.0, match.unitPrice)
}

func TestResolveTier_Coverage(t *testing.T) {
	// Every integer quantity resolves to exactly one bracket that
	// actually contains it.
	tiers := []catalogdomain.PricingTier{
		{MinQuantity: 0, MaxQuantity: f64(9), PricePerUnit: 5},
		{MinQuantity: 10, MaxQuantity: f64(99), PricePerUnit: 4},
		{MinQuantity: 100, PricePerUnit: 3},
	}
	for q := 0.0; q < 500; q++ {
		match := resolveTier(q, tiers, 0)
		assert.Falsef(t, match.fallback, "q=%v hit fallback", q)
		matched := 0
		for _, tier := range tiers {
			if tier.Contains(q) {
				matched++
				assert.Equalf(t, tier.PricePerUnit, match.unitPrice, "q=%v", q)
			}
		}
		assert.Equalf(t, 1, matched, "q=%v contained in %d brackets", q, matched)
	}
}

func TestGraduatedCost_BracketAccumulation(t *testing.T) {
	// 5 MW at 1000 plus 3 MW at 800.
	cost := graduatedCost(8, mwTiers())
	assert.InDelta(t, 7400.0, cost, 1e-9)
}

func TestGraduatedCost_WithinFirstBracket(t *testing.T) {
	cost := graduatedCost(3, mwTiers())
	assert.InDelta(t, 3000.0, cost, 1e-9)
}

func TestGraduatedCost_ZeroQuantity(t *testing.T) {
	assert.Zero(t, graduatedCost(0, mwTiers()))
}

func TestGraduatedCost_MonotonicNonDecreasing(t *testing.T) {
	tiers := []catalogdomain.PricingTier{
		{MinQuantity: 0, MaxQuantity: f64(10), PricePerUnit: 100},
		{MinQuantity: 10, MaxQuantity: f64(50), PricePerUnit: 60},
		{MinQuantity: 50, PricePerUnit: 25},
	}
	prev := 0.0
	for mw := 0.0; mw <= 200; mw += 0.25 {
		cost := graduatedCost(mw, tiers)
		assert.GreaterOrEqualf(t, cost+1e-9, prev, "cost decreased at mw=%v", mw)
		prev = cost
	}
}

func TestGraduatedCost_BoundedTailBillsExcessAtLastRate(t *testing.T) {
	tiers := []catalogdomain.PricingTier{
		{MinQuantity: 0, MaxQuantity: f64(5), PricePerUnit: 1000},
		{MinQuantity: 5, MaxQuantity: f64(10), PricePerUnit: 800},
	}
	cost := graduatedCost(12, tiers)
	assert.InDelta(t, 5*1000+5*800+2*800, cost, 1e-9)
}

func TestApplyPortfolioDiscount(t *testing.T) {
	tiers := []catalogdomain.PortfolioDiscountTier{
		{MinMW: 0, MaxMW: f64(10), DiscountPercent: 0},
		{MinMW: 10, MaxMW: f64(50), DiscountPercent: 0.1},
		{MinMW: 50, DiscountPercent: 0.25},
	}

	rate, applied := applyPortfolioDiscount(100, 30, tiers)
	assert.True(t, applied)
	assert.InDelta(t, 90.0, rate, 1e-9)

	// Whole-portfolio discount, not marginal: 60 MW discounts every MW.
	rate, applied = applyPortfolioDiscount(100, 60, tiers)
	assert.True(t, applied)
	assert.InDelta(t, 75.0, rate, 1e-9)

	rate, applied = applyPortfolioDiscount(100, 5, tiers)
	assert.False(t, applied)
	assert.InDelta(t, 100.0, rate, 1e-9)

	rate, applied = applyPortfolioDiscount(100, 30, nil)
	assert.False(t, applied)
	assert.InDelta(t, 100.0, rate, 1e-9)
}
