// Package scheduler drives recurring invoice generation and revenue
// projection for active contracts.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/solara/internal/clock"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/solara/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/solara/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing required dependency")

type Params struct {
	fx.In

	Log         *zap.Logger
	ContractSvc contractdomain.Service
	InvoiceSvc  invoicedomain.Service
	PricingSvc  pricingdomain.Service
	CurrencySvc currencydomain.Service
	Clock       clock.Clock
	Config      Config              `optional:"true"`
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	contractSvc contractdomain.Service
	invoiceSvc  invoicedomain.Service
	pricingSvc  pricingdomain.Service
	currencySvc currencydomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.ContractSvc == nil || p.InvoiceSvc == nil || p.PricingSvc == nil || p.CurrencySvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		contractSvc: p.ContractSvc,
		invoiceSvc:  p.InvoiceSvc,
		pricingSvc:  p.PricingSvc,
		currencySvc: p.CurrencySvc,
		metrics:     p.Metrics,
	}, nil
}

// RunDueInvoices generates one invoice for every active contract whose
// next_invoice_at has passed, then advances the contract to its next period.
// One failing contract does not block the rest of the batch.
func (s *Scheduler) RunDueInvoices(parent context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	now := s.clock.Now()
	due, err := s.contractSvc.ListDue(ctx, now)
	if err != nil {
		s.recordRun("list_failed")
		return 0, err
	}
	if len(due) > s.cfg.MaxInvoiceBatch {
		due = due[:s.cfg.MaxInvoiceBatch]
	}

	generated := 0
	for i := range due {
		contract := due[i]
		if err := s.invoiceContract(ctx, &contract, now); err != nil {
			s.log.Error("invoice generation failed",
				zap.Int64("contract_id", int64(contract.ID)),
				zap.Error(err),
			)
			s.recordRun("contract_failed")
			continue
		}
		generated++
	}

	if generated > 0 {
		s.log.Info("due invoices generated", zap.Int("count", generated), zap.Int("due", len(due)))
	}
	s.recordRun("ok")
	return generated, nil
}

func (s *Scheduler) invoiceContract(ctx context.Context, contract *contractdomain.Contract, now time.Time) error {
	at := now
	if contract.NextInvoiceAt != nil {
		at = *contract.NextInvoiceAt
	}

	if _, err := s.invoiceSvc.Generate(ctx, contract.ID, at); err != nil {
		return err
	}

	months := contract.Frequency.MonthsInPeriod()
	if months == 0 {
		months = 12
	}
	next := at.AddDate(0, months, 0)
	return s.contractSvc.ScheduleNext(ctx, contract.ID, &next)
}

// ProjectRevenue walks every active contract month by month over the horizon,
// invoking the composer once per contract per projected month and
// accumulating EUR totals into a map keyed by "YYYY-MM". Contracts are
// processed sequentially; the composer is pure, so no locking is needed.
func (s *Scheduler) ProjectRevenue(ctx context.Context, months int) (map[string]float64, error) {
	if months <= 0 {
		months = s.cfg.ProjectionMonths
	}

	contracts, err := s.contractSvc.List(ctx)
	if err != nil {
		return nil, err
	}

	start := s.clock.Now()
	projection := make(map[string]float64, months)
	for m := 0; m < months; m++ {
		monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, m, 0)
		key := monthStart.Format("2006-01")
		projection[key] = 0

		for i := range contracts {
			contract := contracts[i]
			if contract.Status != contractdomain.StatusActive {
				continue
			}

			req, err := s.contractSvc.BuildCalculationRequest(&contract, monthStart)
			if err != nil {
				s.log.Warn("projection skipped contract",
					zap.Int64("contract_id", int64(contract.ID)),
					zap.Error(err),
				)
				continue
			}

			result, err := s.pricingSvc.Calculate(req)
			if err != nil {
				s.log.Warn("projection skipped contract",
					zap.Int64("contract_id", int64(contract.ID)),
					zap.Error(err),
				)
				continue
			}

			// Spread the per-invoice amount over the months it covers.
			periodMonths := contract.Frequency.MonthsInPeriod()
			if periodMonths == 0 {
				periodMonths = 12
			}
			monthly := result.TotalPrice / float64(periodMonths)
			projection[key] += s.currencySvc.ToEUR(ctx, monthly, result.Currency).Amount
		}
	}

	return projection, nil
}

// RunForever loops RunDueInvoices until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunDueInvoices(ctx); err != nil {
				s.log.Error("scheduler pass failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) recordRun(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSchedulerRun(outcome)
}
