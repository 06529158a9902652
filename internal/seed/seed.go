// Package seed installs the default pricing catalog so a fresh install can
// price contracts without any manual setup.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDefaultCatalog seeds the catalog tables when they are empty. An
// existing catalog, even a partial one, is left untouched.
func EnsureDefaultCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&catalogdomain.CatalogPackage{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		if err := tx.Create(defaultPackages(node, now)).Error; err != nil {
			return err
		}
		if err := tx.Create(defaultModules(node, now)).Error; err != nil {
			return err
		}
		if err := tx.Create(defaultAddons(node, now)).Error; err != nil {
			return err
		}
		if err := tx.Create(defaultTiers(node, now)).Error; err != nil {
			return err
		}
		return tx.Create(defaultAccountMappings(node, now)).Error
	})
}

func defaultPackages(node *snowflake.Node, now time.Time) []catalogdomain.CatalogPackage {
	graduated := mustJSON([]catalogdomain.PricingTier{
		{MinQuantity: 0, MaxQuantity: f64(5), PricePerUnit: 1000, Label: "0-5 MWp"},
		{MinQuantity: 5, PricePerUnit: 800, Label: "5+ MWp"},
	})
	return []catalogdomain.CatalogPackage{
		{
			ID:             node.Generate(),
			Code:           "starter",
			Name:           "Starter",
			Kind:           catalogdomain.PackageStarter,
			BaseMonthlyFee: 200,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:            node.Generate(),
			Code:          "pro",
			Name:          "Professional",
			Kind:          catalogdomain.PackagePro,
			BaseRatePerMW: 1200,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:               node.Generate(),
			Code:             "internal_fleet",
			Name:             "Internal Fleet",
			Kind:             catalogdomain.PackageInternal,
			GraduatedMWTiers: graduated,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
}

func defaultModules(node *snowflake.Node, now time.Time) []catalogdomain.CatalogModule {
	return []catalogdomain.CatalogModule{
		{
			ID:             node.Generate(),
			Code:           "performance_monitoring",
			Name:           "Performance Monitoring",
			PricePerMWYear: 240,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             node.Generate(),
			Code:           "alarm_management",
			Name:           "Alarm Management",
			PricePerMWYear: 120,
			TrialAvailable: true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             node.Generate(),
			Code:           "reporting_basic",
			Name:           "Reporting (Basic)",
			PricePerMWYear: 60,
			ExclusiveWith:  mustJSON([]string{"reporting_advanced"}),
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             node.Generate(),
			Code:           "reporting_advanced",
			Name:           "Reporting (Advanced)",
			PricePerMWYear: 180,
			ExclusiveWith:  mustJSON([]string{"reporting_basic"}),
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

func defaultAddons(node *snowflake.Node, now time.Time) []catalogdomain.CatalogAddon {
	return []catalogdomain.CatalogAddon{
		{
			ID:        node.Generate(),
			Code:      "site_onboarding",
			Name:      "Site Onboarding",
			Mode:      catalogdomain.ModeFlat,
			FlatPrice: 150,
			Recurring: false,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:   node.Generate(),
			Code: "satellite_data_api",
			Name: "Satellite Data API",
			Mode: catalogdomain.ModeQuantityTieredFlat,
			Tiers: mustJSON([]catalogdomain.PricingTier{
				{MinQuantity: 0, MaxQuantity: f64(10), PricePerUnit: 50},
				{MinQuantity: 11, PricePerUnit: 30},
			}),
			Recurring: true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:   node.Generate(),
			Code: "custom_dashboard",
			Name: "Custom Dashboard",
			Mode: catalogdomain.ModeComplexityTiered,
			ComplexityPrices: mustJSON(map[catalogdomain.Complexity]float64{
				catalogdomain.ComplexityLow:    1500,
				catalogdomain.ComplexityMedium: 3000,
				catalogdomain.ComplexityHigh:   5000,
			}),
			RequiresProAccess: true,
			Recurring:         false,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			ID:   node.Generate(),
			Code: "data_retention",
			Name: "Extended Data Retention",
			Mode: catalogdomain.ModeQuantityTieredGraduated,
			Tiers: mustJSON([]catalogdomain.PricingTier{
				{MinQuantity: 0, MaxQuantity: f64(100), PricePerUnit: 2},
				{MinQuantity: 100, PricePerUnit: 1},
			}),
			Recurring: true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func defaultTiers(node *snowflake.Node, now time.Time) []catalogdomain.CatalogTier {
	return []catalogdomain.CatalogTier{
		{
			ID:         node.Generate(),
			TableKind:  catalogdomain.TierTableMinimumCharge,
			MinMW:      0,
			MaxMW:      f64(5),
			UnitAmount: 200,
			Label:      "0-5 MWp",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         node.Generate(),
			TableKind:  catalogdomain.TierTableMinimumCharge,
			MinMW:      5,
			UnitAmount: 400,
			Label:      "5+ MWp",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         node.Generate(),
			TableKind:  catalogdomain.TierTablePortfolioDiscount,
			MinMW:      0,
			MaxMW:      f64(10),
			UnitAmount: 0,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         node.Generate(),
			TableKind:  catalogdomain.TierTablePortfolioDiscount,
			MinMW:      10,
			MaxMW:      f64(50),
			UnitAmount: 0.10,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         node.Generate(),
			TableKind:  catalogdomain.TierTablePortfolioDiscount,
			MinMW:      50,
			UnitAmount: 0.20,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

func defaultAccountMappings(node *snowflake.Node, now time.Time) []catalogdomain.AccountMapping {
	return []catalogdomain.AccountMapping{
		{ID: node.Generate(), AccountCode: "4000", Revenue: catalogdomain.RevenueRecurring, CreatedAt: now},
		{ID: node.Generate(), AccountCode: "4010", Revenue: catalogdomain.RevenueRecurring, CreatedAt: now},
		{ID: node.Generate(), AccountCode: "4100", Revenue: catalogdomain.RevenueNonRecurring, CreatedAt: now},
		{ID: node.Generate(), AccountCode: "4110", Revenue: catalogdomain.RevenueNonRecurring, CreatedAt: now},
	}
}

func mustJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(raw)
}

func f64(v float64) *float64 {
	return &v
}
