package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	"github.com/smallbiznis/solara/internal/revenue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrEmptyLineBatch = errors.New("revenue line batch is empty")

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	node     *snowflake.Node
	catalog  catalogdomain.Service
	currency currencydomain.Service
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Node     *snowflake.Node
	Catalog  catalogdomain.Service
	Currency currencydomain.Service
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("revenue.service"),
		repo:     p.Repo,
		node:     p.Node,
		catalog:  p.Catalog,
		currency: p.Currency,
	}
}

// UpsertLines stores a batch of synced invoice lines. Existing rows for the
// same invoice and label are replaced so repeated syncs stay idempotent.
func (s *Service) UpsertLines(ctx context.Context, lines []domain.RevenueLine) (int, error) {
	if len(lines) == 0 {
		return 0, ErrEmptyLineBatch
	}

	now := time.Now().UTC()
	for i := range lines {
		if lines[i].ID == 0 {
			lines[i].ID = s.node.Generate()
		}
		lines[i].Currency = strings.ToUpper(strings.TrimSpace(lines[i].Currency))
		if lines[i].Currency == "" {
			lines[i].Currency = currencydomain.BaseCurrency
		}
		lines[i].CreatedAt = now
		lines[i].UpdatedAt = now
	}

	if err := s.repo.UpsertLines(ctx, s.db, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func (s *Service) ListLines(ctx context.Context) ([]domain.RevenueLine, error) {
	return s.repo.List(ctx, s.db)
}

// Report aggregates all stored lines into an EUR-normalized ARR/NRR view.
func (s *Service) Report(ctx context.Context) (*domain.Report, error) {
	lines, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	mapping := s.catalog.Snapshot().AccountMapping

	normalized := make([]domain.RevenueLine, len(lines))
	buckets := map[string]*domain.ByBucket{}
	order := []string{}
	for i, line := range lines {
		conv := s.currency.ToEUR(ctx, line.Amount, line.Currency)
		line.Amount = conv.Amount
		if total := s.currency.ToEUR(ctx, line.InvoiceTotal, line.Currency); total.Source != currencydomain.SourceNone {
			line.InvoiceTotal = total.Amount
		}
		if credit := s.currency.ToEUR(ctx, line.CreditAmount, line.Currency); credit.Source != currencydomain.SourceNone {
			line.CreditAmount = credit.Amount
		}
		normalized[i] = line

		revenue, mapped := mapping[line.AccountCode]
		if !mapped {
			revenue = catalogdomain.RevenueNonRecurring
			s.log.Warn("unmapped account code treated as non-recurring",
				zap.String("account_code", line.AccountCode),
				zap.String("invoice_ref", line.InvoiceRef),
			)
		}
		bucket, ok := buckets[line.AccountCode]
		if !ok {
			bucket = &domain.ByBucket{AccountCode: line.AccountCode, Revenue: revenue}
			buckets[line.AccountCode] = bucket
			order = append(order, line.AccountCode)
		}
		bucket.Amount += netAmount(line)
	}

	allocation := Allocate(normalized, mapping)

	report := &domain.Report{
		Currency:  currencydomain.BaseCurrency,
		ARR:       allocation.ARR,
		NRR:       allocation.NRR,
		LineCount: len(lines),
		Unmapped:  allocation.Unmapped,
		AsOf:      time.Now().UTC(),
	}
	for _, code := range order {
		report.ByAccount = append(report.ByAccount, *buckets[code])
	}
	return report, nil
}
