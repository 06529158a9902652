// Package domain contains the pricing catalog models: packages, modules,
// add-ons and the tier tables that drive invoice calculation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PackageKind selects the fee structure of a package.
type PackageKind string

const (
	// PackageStarter is a capped package: fixed minimum annual value plus
	// base monthly fee, no per-module or per-addon computation.
	PackageStarter PackageKind = "STARTER"
	// PackagePro prices the portfolio at a flat per-MW-per-year rate.
	PackagePro PackageKind = "PRO"
	// PackageInternal prices the portfolio with graduated MW brackets.
	PackageInternal PackageKind = "INTERNAL"
)

// PricingMode selects how an addon resolves its unit price.
type PricingMode string

const (
	ModeFlat                    PricingMode = "FLAT"
	ModeComplexityTiered        PricingMode = "COMPLEXITY_TIERED"
	ModeQuantityTieredFlat      PricingMode = "QUANTITY_TIERED_FLAT"
	ModeQuantityTieredGraduated PricingMode = "QUANTITY_TIERED_GRADUATED"
)

// Complexity grades a complexity-tiered addon.
type Complexity string

const (
	ComplexityLow    Complexity = "LOW"
	ComplexityMedium Complexity = "MEDIUM"
	ComplexityHigh   Complexity = "HIGH"
)

// RevenueType classifies an amount for ARR/NRR reporting.
type RevenueType string

const (
	RevenueRecurring    RevenueType = "RECURRING"
	RevenueNonRecurring RevenueType = "NON_RECURRING"
)

// PricingTier is one bracket of a quantity or MW tier table. Tiers within a
// table are contiguous and non-overlapping when sorted by MinQuantity; the
// last tier has a nil MaxQuantity (unbounded tail).
type PricingTier struct {
	MinQuantity  float64  `json:"min_quantity"`
	MaxQuantity  *float64 `json:"max_quantity,omitempty"`
	PricePerUnit float64  `json:"price_per_unit"`
	Label        string   `json:"label,omitempty"`
}

// Contains reports whether q falls inside this bracket.
func (t PricingTier) Contains(q float64) bool {
	if q < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || q <= *t.MaxQuantity
}

// MinimumChargeTier maps an MW bracket to a per-site floor charge.
type MinimumChargeTier struct {
	MinMW         float64  `json:"min_mw"`
	MaxMW         *float64 `json:"max_mw,omitempty"`
	ChargePerSite float64  `json:"charge_per_site"`
	Label         string   `json:"label,omitempty"`
}

// PortfolioDiscountTier maps an MW bracket to a discount fraction in [0, 1).
type PortfolioDiscountTier struct {
	MinMW           float64  `json:"min_mw"`
	MaxMW           *float64 `json:"max_mw,omitempty"`
	DiscountPercent float64  `json:"discount_percent"`
}

// PackageDefinition is an immutable catalog entry for a contract package.
type PackageDefinition struct {
	Code             string        `json:"code"`
	Name             string        `json:"name"`
	Kind             PackageKind   `json:"kind"`
	BaseMonthlyFee   float64       `json:"base_monthly_fee"`
	BaseRatePerMW    float64       `json:"base_rate_per_mw"`
	GraduatedMWTiers []PricingTier `json:"graduated_mw_tiers,omitempty"`
	ExcludedModules  []string      `json:"excluded_modules,omitempty"`
}

// ModuleDefinition is an immutable catalog entry for a contract module.
type ModuleDefinition struct {
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	PricePerMWYear float64  `json:"price_per_mw_year"`
	TrialAvailable bool     `json:"trial_available"`
	ExclusiveWith  []string `json:"exclusive_with,omitempty"`
}

// AddonDefinition is an immutable catalog entry for a contract addon.
type AddonDefinition struct {
	Code              string                 `json:"code"`
	Name              string                 `json:"name"`
	Mode              PricingMode            `json:"mode"`
	FlatPrice         float64                `json:"flat_price,omitempty"`
	ComplexityPrices  map[Complexity]float64 `json:"complexity_prices,omitempty"`
	Tiers             []PricingTier          `json:"tiers,omitempty"`
	RequiresProAccess bool                   `json:"requires_pro"`
	Recurring         bool                   `json:"recurring"`
}

// Catalog is the immutable snapshot the pricing engine reads. It is rebuilt
// as a whole on reload; callers must never mutate a snapshot they received.
type Catalog struct {
	Packages           map[string]PackageDefinition
	Modules            map[string]ModuleDefinition
	Addons             map[string]AddonDefinition
	PortfolioDiscounts []PortfolioDiscountTier
	MinimumCharges     []MinimumChargeTier
	AccountMapping     map[string]RevenueType
}

// Package looks up a package definition by code.
func (c *Catalog) Package(code string) (PackageDefinition, bool) {
	def, ok := c.Packages[code]
	return def, ok
}

// Module looks up a module definition by code.
func (c *Catalog) Module(code string) (ModuleDefinition, bool) {
	def, ok := c.Modules[code]
	return def, ok
}

// Addon looks up an addon definition by code.
func (c *Catalog) Addon(code string) (AddonDefinition, bool) {
	def, ok := c.Addons[code]
	return def, ok
}

// CatalogPackage is the persisted form of a package definition.
type CatalogPackage struct {
	ID               snowflake.ID   `gorm:"primaryKey"`
	Code             string         `gorm:"type:text;not null;uniqueIndex"`
	Name             string         `gorm:"type:text;not null"`
	Kind             PackageKind    `gorm:"type:text;not null"`
	BaseMonthlyFee   float64        `gorm:"type:numeric;not null;default:0"`
	BaseRatePerMW    float64        `gorm:"type:numeric;not null;default:0"`
	GraduatedMWTiers datatypes.JSON `gorm:"type:jsonb"`
	ExcludedModules  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CatalogPackage) TableName() string { return "catalog_packages" }

// CatalogModule is the persisted form of a module definition.
type CatalogModule struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	Code           string         `gorm:"type:text;not null;uniqueIndex"`
	Name           string         `gorm:"type:text;not null"`
	PricePerMWYear float64        `gorm:"type:numeric;not null"`
	TrialAvailable bool           `gorm:"not null;default:false"`
	ExclusiveWith  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CatalogModule) TableName() string { return "catalog_modules" }

// CatalogAddon is the persisted form of an addon definition.
type CatalogAddon struct {
	ID                snowflake.ID   `gorm:"primaryKey"`
	Code              string         `gorm:"type:text;not null;uniqueIndex"`
	Name              string         `gorm:"type:text;not null"`
	Mode              PricingMode    `gorm:"type:text;not null"`
	FlatPrice         float64        `gorm:"type:numeric;not null;default:0"`
	ComplexityPrices  datatypes.JSON `gorm:"type:jsonb"`
	Tiers             datatypes.JSON `gorm:"type:jsonb"`
	RequiresProAccess bool           `gorm:"not null;default:false"`
	Recurring         bool           `gorm:"not null;default:true"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CatalogAddon) TableName() string { return "catalog_addons" }

// TierTableKind distinguishes the persisted shared tier tables.
type TierTableKind string

const (
	TierTableMinimumCharge     TierTableKind = "MINIMUM_CHARGE"
	TierTablePortfolioDiscount TierTableKind = "PORTFOLIO_DISCOUNT"
)

// CatalogTier is one persisted bracket of a shared tier table.
type CatalogTier struct {
	ID          snowflake.ID  `gorm:"primaryKey"`
	TableKind   TierTableKind `gorm:"type:text;not null;index"`
	MinMW       float64       `gorm:"type:numeric;not null"`
	MaxMW       *float64      `gorm:"type:numeric"`
	UnitAmount  float64       `gorm:"type:numeric;not null"`
	Label       string        `gorm:"type:text"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CatalogTier) TableName() string { return "catalog_tiers" }

// AccountMapping classifies an accounting-platform account code for revenue
// reporting. Unmapped codes default to non-recurring.
type AccountMapping struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	AccountCode string       `gorm:"type:text;not null;uniqueIndex"`
	Revenue     RevenueType  `gorm:"type:text;not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AccountMapping) TableName() string { return "account_mappings" }
