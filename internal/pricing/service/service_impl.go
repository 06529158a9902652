package service

import (
	"math"

	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	obsmetrics "github.com/smallbiznis/solara/internal/observability/metrics"
	"github.com/smallbiznis/solara/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service composes invoices from a contract pricing snapshot and the
// catalog. It is pure apart from logging: no I/O, no shared mutable state,
// safe for concurrent use.
type Service struct {
	log        *zap.Logger
	catalogSvc catalogdomain.Service
	metrics    *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	CatalogSvc catalogdomain.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:        p.Log.Named("pricing.service"),
		catalogSvc: p.CatalogSvc,
		metrics:    p.Metrics,
	}
}

// line carries full-precision amounts until presentation.
type line struct {
	label     string
	quantity  float64
	unitPrice float64
	total     float64
	revenue   catalogdomain.RevenueType
}

// Calculate converts a contract pricing configuration into a line-item
// breakdown and total. Missing or zero inputs degrade gracefully (the line
// is skipped and a warning logged); a structurally invalid configuration
// returns an error and blocks invoice generation.
func (s *Service) Calculate(req domain.CalculationRequest) (*domain.Result, error) {
	if !req.Frequency.Valid() {
		return nil, domain.ErrInvalidFrequency
	}

	catalog := s.catalogSvc.Snapshot()
	pkg, ok := catalog.Package(req.PackageCode)
	if !ok {
		return nil, domain.ErrUnknownPackage
	}

	if pkg.Kind == catalogdomain.PackageStarter {
		return s.composeStarter(req, pkg), nil
	}
	return s.composeMetered(req, pkg, catalog), nil
}

// composeStarter handles capped packages: a fixed fee structure with no
// module or addon computation.
func (s *Service) composeStarter(req domain.CalculationRequest, pkg catalogdomain.PackageDefinition) *domain.Result {
	fraction := req.Frequency.PeriodFraction()
	months := float64(req.Frequency.MonthsInPeriod())

	lines := make([]line, 0, 2)
	if minimum := req.MinimumAnnualValue * fraction; minimum > 0 {
		lines = append(lines, line{
			label:     pkg.Name + " package fee",
			quantity:  1,
			unitPrice: minimum,
			total:     minimum,
			revenue:   catalogdomain.RevenueRecurring,
		})
	}
	if base := pkg.BaseMonthlyFee * months; base > 0 {
		lines = append(lines, line{
			label:     pkg.Name + " base fee",
			quantity:  months,
			unitPrice: pkg.BaseMonthlyFee,
			total:     base,
			revenue:   catalogdomain.RevenueRecurring,
		})
	}

	result := present(lines, req.Currency)
	s.recordCalculation(req.PackageCode, result)
	return result
}

// composeMetered handles pro/custom/internal packages: MW-based base line,
// modules, addons, then the minimum charge floor.
func (s *Service) composeMetered(req domain.CalculationRequest, pkg catalogdomain.PackageDefinition, catalog *catalogdomain.Catalog) *domain.Result {
	fraction := req.Frequency.PeriodFraction()
	lines := make([]line, 0, 2+len(req.Modules)+len(req.Addons))
	discountApplied := false

	if req.TotalMW <= 0 {
		s.log.Warn("missing portfolio capacity, skipping MW lines",
			zap.String("package", req.PackageCode),
		)
	} else {
		rate := pkg.BaseRatePerMW
		if len(pkg.GraduatedMWTiers) > 0 {
			rate = graduatedCost(req.TotalMW, pkg.GraduatedMWTiers) / req.TotalMW
		}
		discounted, applied := applyPortfolioDiscount(rate, req.TotalMW, catalog.PortfolioDiscounts)
		discountApplied = applied

		if base := discounted * req.TotalMW * fraction; base > 0 {
			lines = append(lines, line{
				label:     pkg.Name + " platform fee",
				quantity:  req.TotalMW,
				unitPrice: discounted * fraction,
				total:     base,
				revenue:   catalogdomain.RevenueRecurring,
			})
		}

		for _, sel := range req.Modules {
			if moduleLine, ok := s.composeModule(sel, req, pkg, catalog, fraction); ok {
				lines = append(lines, moduleLine)
			}
		}
	}

	for _, sel := range req.Addons {
		if addonLine, ok := s.composeAddon(sel, req, catalog, fraction); ok {
			lines = append(lines, addonLine)
		}
	}

	subtotal := 0.0
	for _, l := range lines {
		subtotal += l.total
	}

	final, minimumApplied := enforceMinimum(
		subtotal,
		req.TotalMW,
		req.SiteChargeFrequency,
		req.Frequency,
		catalog.MinimumCharges,
		req.SiteCount,
		req.MinimumAnnualValue,
	)
	if minimumApplied {
		s.recordMinimumApplied(req.PackageCode)
		lines = append(lines, line{
			label:     "Minimum charge adjustment",
			quantity:  1,
			unitPrice: final - subtotal,
			total:     final - subtotal,
			revenue:   catalogdomain.RevenueRecurring,
		})
	}

	result := present(lines, req.Currency)
	result.Subtotal = round2(subtotal)
	result.TotalPrice = round2(final)
	result.MinimumChargeApplied = minimumApplied
	result.DiscountApplied = discountApplied
	s.recordCalculation(req.PackageCode, result)
	return result
}

func (s *Service) composeModule(
	sel domain.ModuleSelection,
	req domain.CalculationRequest,
	pkg catalogdomain.PackageDefinition,
	catalog *catalogdomain.Catalog,
	fraction float64,
) (line, bool) {
	def, ok := catalog.Module(sel.Code)
	if !ok {
		s.log.Warn("unknown module, skipping line", zap.String("module", sel.Code))
		return line{}, false
	}
	for _, excluded := range pkg.ExcludedModules {
		if excluded == sel.Code {
			s.log.Warn("module excluded by package, skipping line",
				zap.String("module", sel.Code),
				zap.String("package", pkg.Code),
			)
			return line{}, false
		}
	}
	if sel.OnTrial {
		return line{}, false
	}

	unit := def.PricePerMWYear
	if sel.CustomPrice != nil {
		unit = *sel.CustomPrice
	}
	total := unit * req.TotalMW * fraction
	if total <= 0 {
		return line{}, false
	}

	return line{
		label:     def.Name,
		quantity:  req.TotalMW,
		unitPrice: unit * fraction,
		total:     total,
		revenue:   catalogdomain.RevenueRecurring,
	}, true
}

func (s *Service) composeAddon(
	sel domain.AddonSelection,
	req domain.CalculationRequest,
	catalog *catalogdomain.Catalog,
	fraction float64,
) (line, bool) {
	def, ok := catalog.Addon(sel.Code)
	if !ok {
		s.log.Warn("unknown addon, skipping line", zap.String("addon", sel.Code))
		return line{}, false
	}
	if sel.Quantity <= 0 {
		s.log.Warn("missing addon quantity, skipping line", zap.String("addon", sel.Code))
		return line{}, false
	}

	total, unit, ok := s.addonCost(sel, def)
	if !ok {
		return line{}, false
	}

	// One-time addons are never frequency-scaled.
	if def.Recurring {
		total *= fraction
		unit *= fraction
	}

	revenue := catalogdomain.RevenueNonRecurring
	if def.Recurring {
		revenue = catalogdomain.RevenueRecurring
	}
	return line{
		label:     def.Name,
		quantity:  sel.Quantity,
		unitPrice: unit,
		total:     total,
		revenue:   revenue,
	}, true
}

// addonCost resolves the addon's annual (or one-time) cost by pricing mode.
// A custom price override replaces the resolved unit price in every mode.
func (s *Service) addonCost(sel domain.AddonSelection, def catalogdomain.AddonDefinition) (total, unit float64, ok bool) {
	if sel.CustomPrice != nil {
		unit = *sel.CustomPrice
		return unit * sel.Quantity, unit, true
	}

	switch def.Mode {
	case catalogdomain.ModeFlat:
		unit = def.FlatPrice
	case catalogdomain.ModeComplexityTiered:
		price, found := def.ComplexityPrices[sel.Complexity]
		if !found {
			s.log.Warn("unmapped addon complexity, skipping line",
				zap.String("addon", def.Code),
				zap.String("complexity", string(sel.Complexity)),
			)
			return 0, 0, false
		}
		unit = price
	case catalogdomain.ModeQuantityTieredFlat:
		tiers := def.Tiers
		if len(sel.CustomTiers) > 0 {
			tiers = sel.CustomTiers
		}
		match := resolveTier(sel.Quantity, tiers, def.FlatPrice)
		if match.fallback {
			s.recordTierFallback(def.Code)
			s.log.Warn("tier fallback used", zap.String("addon", def.Code), zap.Float64("quantity", sel.Quantity))
		}
		unit = match.unitPrice
	case catalogdomain.ModeQuantityTieredGraduated:
		tiers := def.Tiers
		if len(sel.CustomTiers) > 0 {
			tiers = sel.CustomTiers
		}
		cost := graduatedCost(sel.Quantity, tiers)
		return cost, cost / sel.Quantity, true
	default:
		s.log.Warn("unknown addon pricing mode, skipping line",
			zap.String("addon", def.Code),
			zap.String("mode", string(def.Mode)),
		)
		return 0, 0, false
	}

	return unit * sel.Quantity, unit, true
}

// present converts full-precision lines into the rounded result shape.
// Rounding happens once per line and once for the totals; never earlier.
func present(lines []line, currency string) *domain.Result {
	items := make([]domain.LineItem, 0, len(lines))
	subtotal := 0.0
	for _, l := range lines {
		subtotal += l.total
		items = append(items, domain.LineItem{
			Label:     l.label,
			Quantity:  l.quantity,
			UnitPrice: l.unitPrice,
			LineTotal: round2(l.total),
			Revenue:   l.revenue,
		})
	}
	return &domain.Result{
		LineItems:  items,
		Subtotal:   round2(subtotal),
		TotalPrice: round2(subtotal),
		Currency:   currency,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Service) recordCalculation(packageCode string, result *domain.Result) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordInvoiceCalculation(packageCode, len(result.LineItems))
}

func (s *Service) recordMinimumApplied(packageCode string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordMinimumCharge(packageCode)
}

func (s *Service) recordTierFallback(addonCode string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTierFallback(addonCode)
}
