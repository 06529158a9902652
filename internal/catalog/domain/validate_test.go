package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCatalog() *Catalog {
	return &Catalog{
		Packages: map[string]PackageDefinition{
			"pro": {Code: "pro", Kind: PackagePro, BaseRatePerMW: 1200},
			"internal_fleet": {
				Code: "internal_fleet",
				Kind: PackageInternal,
				GraduatedMWTiers: []PricingTier{
					{MinQuantity: 0, MaxQuantity: f(5), PricePerUnit: 1000},
					{MinQuantity: 5, PricePerUnit: 800},
				},
			},
		},
		Addons: map[string]AddonDefinition{
			"site_onboarding": {Code: "site_onboarding", Mode: ModeFlat, FlatPrice: 150},
			"custom_dashboard": {
				Code:             "custom_dashboard",
				Mode:             ModeComplexityTiered,
				ComplexityPrices: map[Complexity]float64{ComplexityLow: 1500},
			},
		},
		MinimumCharges: []MinimumChargeTier{
			{MinMW: 0, MaxMW: f(5), ChargePerSite: 200},
			{MinMW: 5, ChargePerSite: 400},
		},
		PortfolioDiscounts: []PortfolioDiscountTier{
			{MinMW: 0, MaxMW: f(10), DiscountPercent: 0},
			{MinMW: 10, DiscountPercent: 0.10},
		},
	}
}

func f(v float64) *float64 { return &v }

func TestValidate_AcceptsWellFormedCatalog(t *testing.T) {
	assert.NoError(t, validCatalog().Validate())
}

func TestValidate_RejectsEmptyCatalog(t *testing.T) {
	err := (&Catalog{}).Validate()

	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestValidate_RejectsBoundedTail(t *testing.T) {
	c := validCatalog()
	pkg := c.Packages["internal_fleet"]
	pkg.GraduatedMWTiers = []PricingTier{
		{MinQuantity: 0, MaxQuantity: f(5), PricePerUnit: 1000},
		{MinQuantity: 5, MaxQuantity: f(10), PricePerUnit: 800},
	}
	c.Packages["internal_fleet"] = pkg

	assert.ErrorIs(t, c.Validate(), ErrMalformedTierTable)
}

func TestValidate_RejectsOverlappingTiers(t *testing.T) {
	c := validCatalog()
	pkg := c.Packages["internal_fleet"]
	pkg.GraduatedMWTiers = []PricingTier{
		{MinQuantity: 0, MaxQuantity: f(6), PricePerUnit: 1000},
		{MinQuantity: 5, PricePerUnit: 800},
	}
	c.Packages["internal_fleet"] = pkg

	assert.ErrorIs(t, c.Validate(), ErrMalformedTierTable)
}

func TestValidate_RejectsUnboundedTierBeforeTail(t *testing.T) {
	c := validCatalog()
	pkg := c.Packages["internal_fleet"]
	pkg.GraduatedMWTiers = []PricingTier{
		{MinQuantity: 0, PricePerUnit: 1000},
		{MinQuantity: 5, PricePerUnit: 800},
	}
	c.Packages["internal_fleet"] = pkg

	assert.ErrorIs(t, c.Validate(), ErrMalformedTierTable)
}

func TestValidate_RejectsMissingComplexityPrices(t *testing.T) {
	c := validCatalog()
	addon := c.Addons["custom_dashboard"]
	addon.ComplexityPrices = nil
	c.Addons["custom_dashboard"] = addon

	assert.ErrorIs(t, c.Validate(), ErrMalformedTierTable)
}

func TestValidate_RejectsUnknownPricingMode(t *testing.T) {
	c := validCatalog()
	c.Addons["broken"] = AddonDefinition{Code: "broken", Mode: "PER_SEAT"}

	assert.ErrorIs(t, c.Validate(), ErrInvalidPricingMode)
}

func TestValidate_RejectsDiscountOutOfRange(t *testing.T) {
	c := validCatalog()
	c.PortfolioDiscounts[1].DiscountPercent = 1

	assert.ErrorIs(t, c.Validate(), ErrInvalidDiscount)
}

func TestPricingTierContains(t *testing.T) {
	bounded := PricingTier{MinQuantity: 5, MaxQuantity: f(10)}
	unbounded := PricingTier{MinQuantity: 10}

	assert.False(t, bounded.Contains(4.9))
	assert.True(t, bounded.Contains(5))
	assert.True(t, bounded.Contains(10))
	assert.True(t, unbounded.Contains(1000))
	assert.False(t, unbounded.Contains(9.9))
}
