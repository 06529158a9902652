package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/solara/internal/config"
	"github.com/smallbiznis/solara/internal/currency/domain"
	obsmetrics "github.com/smallbiznis/solara/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidRate = errors.New("exchange rate must be positive")

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	node    *snowflake.Node
	billing *config.BillingConfigHolder
	metrics *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Node    *snowflake.Node
	Billing *config.BillingConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("currency.service"),
		repo:    p.Repo,
		node:    p.Node,
		billing: p.Billing,
		metrics: p.Metrics,
	}
}

// ToEUR normalizes amount into EUR. Resolution order: identity for EUR, a
// stored live rate, then the static fallback table. Currencies with no rate
// at all pass through unconverted so a missing rate never blocks reporting.
func (s *Service) ToEUR(ctx context.Context, amount float64, currency string) domain.Conversion {
	code := normalize(currency)
	if code == "" || code == domain.BaseCurrency {
		return domain.Conversion{Amount: amount, Rate: 1, Source: domain.SourceIdentity}
	}

	if rate := s.liveRate(ctx, code); rate > 0 {
		return domain.Conversion{Amount: amount / rate, Rate: rate, Source: domain.SourceLive}
	}

	if rate, ok := s.fallbackRate(code); ok {
		s.log.Warn("no stored exchange rate, using fallback",
			zap.String("currency", code),
			zap.Float64("rate_per_eur", rate),
		)
		s.recordFallback(code)
		return domain.Conversion{Amount: amount / rate, Rate: rate, Source: domain.SourceFallback}
	}

	s.log.Warn("no exchange rate available, amount passed through unconverted",
		zap.String("currency", code),
	)
	return domain.Conversion{Amount: amount, Rate: 0, Source: domain.SourceNone}
}

// FromEUR converts an EUR amount into the given currency using the same
// resolution order as ToEUR.
func (s *Service) FromEUR(ctx context.Context, amount float64, currency string) domain.Conversion {
	code := normalize(currency)
	if code == "" || code == domain.BaseCurrency {
		return domain.Conversion{Amount: amount, Rate: 1, Source: domain.SourceIdentity}
	}

	if rate := s.liveRate(ctx, code); rate > 0 {
		return domain.Conversion{Amount: amount * rate, Rate: rate, Source: domain.SourceLive}
	}

	if rate, ok := s.fallbackRate(code); ok {
		s.recordFallback(code)
		return domain.Conversion{Amount: amount * rate, Rate: rate, Source: domain.SourceFallback}
	}

	s.log.Warn("no exchange rate available, amount passed through unconverted",
		zap.String("currency", code),
	)
	return domain.Conversion{Amount: amount, Rate: 0, Source: domain.SourceNone}
}

func (s *Service) UpsertRate(ctx context.Context, currency string, ratePerEUR float64) (*domain.ExchangeRate, error) {
	if ratePerEUR <= 0 {
		return nil, ErrInvalidRate
	}
	now := time.Now().UTC()
	rate := &domain.ExchangeRate{
		ID:         s.node.Generate(),
		Currency:   normalize(currency),
		RatePerEUR: ratePerEUR,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Upsert(ctx, s.db, rate); err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *Service) ListRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) liveRate(ctx context.Context, currency string) float64 {
	stored, err := s.repo.FindByCurrency(ctx, s.db, currency)
	if err != nil {
		s.log.Warn("exchange rate lookup failed", zap.String("currency", currency), zap.Error(err))
		return 0
	}
	if stored == nil {
		return 0
	}
	return stored.RatePerEUR
}

func (s *Service) fallbackRate(currency string) (float64, bool) {
	rates := s.billing.Get().FallbackRates
	rate, ok := rates[currency]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

func (s *Service) recordFallback(currency string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCurrencyFallback(currency)
}

func normalize(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
