package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/contract/domain"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	node    *snowflake.Node
	catalog catalogdomain.Service
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Node    *snowflake.Node
	Catalog catalogdomain.Service
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("contract.service"),
		repo:    p.Repo,
		node:    p.Node,
		catalog: p.Catalog,
	}
}

func (s *Service) Create(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	if err := s.normalize(contract); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contract.ID = s.node.Generate()
	if contract.Status == "" {
		contract.Status = domain.StatusDraft
	}
	if contract.StartDate.IsZero() {
		contract.StartDate = now
	}
	if contract.Status == domain.StatusActive && contract.NextInvoiceAt == nil {
		start := contract.StartDate
		contract.NextInvoiceAt = &start
	}
	contract.CreatedAt = now
	contract.UpdatedAt = now
	s.stampSelections(contract, now)

	if err := s.repo.Insert(ctx, s.db, contract); err != nil {
		return nil, err
	}
	s.log.Info("contract created",
		zap.Int64("contract_id", int64(contract.ID)),
		zap.String("package", contract.PackageCode),
	)
	return contract, nil
}

func (s *Service) Update(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	existing, err := s.repo.FindByID(ctx, s.db, contract.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrContractNotFound
	}

	if err := s.normalize(contract); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contract.CreatedAt = existing.CreatedAt
	contract.UpdatedAt = now
	if contract.StartDate.IsZero() {
		contract.StartDate = existing.StartDate
	}
	s.stampSelections(contract, now)

	if err := s.repo.Update(ctx, s.db, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Contract, error) {
	contract, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}
	return contract, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Contract, error) {
	return s.repo.List(ctx, s.db)
}

// UpdateCapacity writes the externally synced portfolio size onto the
// contract. Billing reads these values as-is at calculation time.
func (s *Service) UpdateCapacity(ctx context.Context, id snowflake.ID, totalMW float64, siteCount int) (*domain.Contract, error) {
	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrContractNotFound
	}

	if err := s.repo.UpdateCapacity(ctx, s.db, id, totalMW, siteCount); err != nil {
		return nil, err
	}
	existing.TotalMW = totalMW
	existing.SiteCount = siteCount
	return existing, nil
}

func (s *Service) ListDue(ctx context.Context, before time.Time) ([]domain.Contract, error) {
	return s.repo.ListDue(ctx, s.db, before)
}

func (s *Service) ScheduleNext(ctx context.Context, id snowflake.ID, next *time.Time) error {
	return s.repo.UpdateNextInvoiceAt(ctx, s.db, id, next)
}

// BuildCalculationRequest snapshots the contract into the composer's input.
// Trial windows are resolved here against the given instant so the composer
// itself never touches dates.
func (s *Service) BuildCalculationRequest(contract *domain.Contract, at time.Time) (pricingdomain.CalculationRequest, error) {
	req := pricingdomain.CalculationRequest{
		PackageCode:         contract.PackageCode,
		TotalMW:             contract.TotalMW,
		SiteCount:           contract.SiteCount,
		Frequency:           contract.Frequency,
		SiteChargeFrequency: contract.SiteChargeFrequency,
		MinimumAnnualValue:  contract.MinimumAnnualValue,
		Currency:            contract.Currency,
	}

	for _, module := range contract.Modules {
		req.Modules = append(req.Modules, pricingdomain.ModuleSelection{
			Code:        module.ModuleCode,
			CustomPrice: module.CustomPrice,
			OnTrial:     module.TrialUntil != nil && at.Before(*module.TrialUntil),
		})
	}

	for _, addon := range contract.Addons {
		selection := pricingdomain.AddonSelection{
			Code:        addon.AddonCode,
			Quantity:    addon.Quantity,
			Complexity:  addon.Complexity,
			CustomPrice: addon.CustomPrice,
		}
		if len(addon.CustomTiers) > 0 {
			var tiers []catalogdomain.PricingTier
			if err := json.Unmarshal(addon.CustomTiers, &tiers); err != nil {
				return pricingdomain.CalculationRequest{}, fmt.Errorf("decode custom tiers for addon %s: %w", addon.AddonCode, err)
			}
			selection.CustomTiers = tiers
		}
		req.Addons = append(req.Addons, selection)
	}

	return req, nil
}

func (s *Service) normalize(contract *domain.Contract) error {
	if !contract.Frequency.Valid() {
		return pricingdomain.ErrInvalidFrequency
	}
	contract.Currency = strings.ToUpper(strings.TrimSpace(contract.Currency))
	if contract.Currency == "" {
		contract.Currency = "EUR"
	}

	moduleCodes := make([]string, 0, len(contract.Modules))
	for _, module := range contract.Modules {
		moduleCodes = append(moduleCodes, module.ModuleCode)
	}
	addonCodes := make([]string, 0, len(contract.Addons))
	for _, addon := range contract.Addons {
		addonCodes = append(addonCodes, addon.AddonCode)
	}
	return domain.ValidateModuleSelection(s.catalog.Snapshot(), contract.PackageCode, moduleCodes, addonCodes)
}

func (s *Service) stampSelections(contract *domain.Contract, now time.Time) {
	for i := range contract.Modules {
		if contract.Modules[i].ID == 0 {
			contract.Modules[i].ID = s.node.Generate()
		}
		contract.Modules[i].ContractID = contract.ID
		if contract.Modules[i].CreatedAt.IsZero() {
			contract.Modules[i].CreatedAt = now
		}
		contract.Modules[i].UpdatedAt = now
	}
	for i := range contract.Addons {
		if contract.Addons[i].ID == 0 {
			contract.Addons[i].ID = s.node.Generate()
		}
		contract.Addons[i].ContractID = contract.ID
		if contract.Addons[i].CreatedAt.IsZero() {
			contract.Addons[i].CreatedAt = now
		}
		contract.Addons[i].UpdatedAt = now
	}
}
