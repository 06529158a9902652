package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/smallbiznis/solara/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository

	current atomic.Pointer[domain.Catalog]
}

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("catalog.service"),
		repo: p.Repo,
	}
}

// Snapshot returns the last validated catalog, or an empty catalog when
// nothing has been loaded yet. Callers treat the snapshot as read-only.
func (s *Service) Snapshot() *domain.Catalog {
	if c := s.current.Load(); c != nil {
		return c
	}
	return &domain.Catalog{
		Packages:       map[string]domain.PackageDefinition{},
		Modules:        map[string]domain.ModuleDefinition{},
		Addons:         map[string]domain.AddonDefinition{},
		AccountMapping: map[string]domain.RevenueType{},
	}
}

// Reload rebuilds the snapshot from the database. An invalid catalog is
// rejected as a whole; the previous snapshot stays in effect.
func (s *Service) Reload(ctx context.Context) error {
	catalog, err := s.build(ctx)
	if err != nil {
		return err
	}
	if err := catalog.Validate(); err != nil {
		s.log.Error("catalog rejected", zap.Error(err))
		return err
	}

	s.current.Store(catalog)
	s.log.Info("catalog loaded",
		zap.Int("packages", len(catalog.Packages)),
		zap.Int("modules", len(catalog.Modules)),
		zap.Int("addons", len(catalog.Addons)),
		zap.Int("account_mappings", len(catalog.AccountMapping)),
	)
	return nil
}

func (s *Service) build(ctx context.Context) (*domain.Catalog, error) {
	catalog := &domain.Catalog{
		Packages:       map[string]domain.PackageDefinition{},
		Modules:        map[string]domain.ModuleDefinition{},
		Addons:         map[string]domain.AddonDefinition{},
		AccountMapping: map[string]domain.RevenueType{},
	}

	packages, err := s.repo.ListPackages(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	for _, row := range packages {
		def := domain.PackageDefinition{
			Code:           row.Code,
			Name:           row.Name,
			Kind:           row.Kind,
			BaseMonthlyFee: row.BaseMonthlyFee,
			BaseRatePerMW:  row.BaseRatePerMW,
		}
		if err := unmarshalJSON(row.GraduatedMWTiers, &def.GraduatedMWTiers); err != nil {
			return nil, fmt.Errorf("package %s tiers: %w", row.Code, err)
		}
		if err := unmarshalJSON(row.ExcludedModules, &def.ExcludedModules); err != nil {
			return nil, fmt.Errorf("package %s exclusions: %w", row.Code, err)
		}
		catalog.Packages[row.Code] = def
	}

	modules, err := s.repo.ListModules(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	for _, row := range modules {
		def := domain.ModuleDefinition{
			Code:           row.Code,
			Name:           row.Name,
			PricePerMWYear: row.PricePerMWYear,
			TrialAvailable: row.TrialAvailable,
		}
		if err := unmarshalJSON(row.ExclusiveWith, &def.ExclusiveWith); err != nil {
			return nil, fmt.Errorf("module %s exclusions: %w", row.Code, err)
		}
		catalog.Modules[row.Code] = def
	}

	addons, err := s.repo.ListAddons(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load addons: %w", err)
	}
	for _, row := range addons {
		def := domain.AddonDefinition{
			Code:              row.Code,
			Name:              row.Name,
			Mode:              row.Mode,
			FlatPrice:         row.FlatPrice,
			RequiresProAccess: row.RequiresProAccess,
			Recurring:         row.Recurring,
		}
		if err := unmarshalJSON(row.ComplexityPrices, &def.ComplexityPrices); err != nil {
			return nil, fmt.Errorf("addon %s complexity prices: %w", row.Code, err)
		}
		if err := unmarshalJSON(row.Tiers, &def.Tiers); err != nil {
			return nil, fmt.Errorf("addon %s tiers: %w", row.Code, err)
		}
		catalog.Addons[row.Code] = def
	}

	minimums, err := s.repo.ListTiers(ctx, s.db, domain.TierTableMinimumCharge)
	if err != nil {
		return nil, fmt.Errorf("load minimum charge tiers: %w", err)
	}
	for _, row := range minimums {
		catalog.MinimumCharges = append(catalog.MinimumCharges, domain.MinimumChargeTier{
			MinMW:         row.MinMW,
			MaxMW:         row.MaxMW,
			ChargePerSite: row.UnitAmount,
			Label:         row.Label,
		})
	}

	discounts, err := s.repo.ListTiers(ctx, s.db, domain.TierTablePortfolioDiscount)
	if err != nil {
		return nil, fmt.Errorf("load portfolio discount tiers: %w", err)
	}
	for _, row := range discounts {
		catalog.PortfolioDiscounts = append(catalog.PortfolioDiscounts, domain.PortfolioDiscountTier{
			MinMW:           row.MinMW,
			MaxMW:           row.MaxMW,
			DiscountPercent: row.UnitAmount,
		})
	}

	mappings, err := s.repo.ListAccountMappings(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load account mappings: %w", err)
	}
	for _, row := range mappings {
		catalog.AccountMapping[row.AccountCode] = row.Revenue
	}

	return catalog, nil
}

func unmarshalJSON(raw []byte, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
