package service

import (
	"testing"

	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/pricing/domain"
	"github.com/stretchr/testify/assert"
)

func minimumTiers() []catalogdomain.MinimumChargeTier {
	return []catalogdomain.MinimumChargeTier{
		{MinMW: 0, MaxMW: f64(10), ChargePerSite: 300, Label: "small"},
		{MinMW: 10, ChargePerSite: 200, Label: "large"},
	}
}

func TestEnforceMinimum_FloorSubstituted(t *testing.T) {
	// 2 sites at 300 per site (annual cadence, annual invoice) = 600.
	final, applied := enforceMinimum(400, 5, domain.SiteChargeAnnual, domain.FrequencyAnnual, minimumTiers(), 2, 0)
	assert.True(t, applied)
	assert.InDelta(t, 600.0, final, 1e-9)
}

func TestEnforceMinimum_SubtotalAboveFloor(t *testing.T) {
	final, applied := enforceMinimum(900, 5, domain.SiteChargeAnnual, domain.FrequencyAnnual, minimumTiers(), 2, 0)
	assert.False(t, applied)
	assert.InDelta(t, 900.0, final, 1e-9)
}

func TestEnforceMinimum_Idempotent(t *testing.T) {
	once, _ := enforceMinimum(400, 5, domain.SiteChargeAnnual, domain.FrequencyAnnual, minimumTiers(), 2, 0)
	twice, applied := enforceMinimum(once, 5, domain.SiteChargeAnnual, domain.FrequencyAnnual, minimumTiers(), 2, 0)
	assert.InDelta(t, once, twice, 1e-9)
	assert.False(t, applied)
}

func TestEnforceMinimum_MonthlySiteChargeScaledToPeriod(t *testing.T) {
	// Monthly per-site charge over a quarterly invoice covers 3 months.
	final, applied := enforceMinimum(100, 5, domain.SiteChargeMonthly, domain.FrequencyQuarterly, minimumTiers(), 1, 0)
	assert.True(t, applied)
	assert.InDelta(t, 300*1*3, final, 1e-9)
}

func TestEnforceMinimum_EmptyTableUsesAnnualValueFallback(t *testing.T) {
	// Per-site-fee fallback: flat minimum annual value scaled by the
	// billing-frequency multiplier.
	final, applied := enforceMinimum(1000, 5, domain.SiteChargeAnnual, domain.FrequencyQuarterly, nil, 2, 12000)
	assert.True(t, applied)
	assert.InDelta(t, 3000.0, final, 1e-9)
}

func TestEnforceMinimum_BracketByMW(t *testing.T) {
	// 20 MW falls in the large bracket: 200 per site.
	final, applied := enforceMinimum(0, 20, domain.SiteChargeAnnual, domain.FrequencyAnnual, minimumTiers(), 3, 0)
	assert.True(t, applied)
	assert.InDelta(t, 600.0, final, 1e-9)
}
