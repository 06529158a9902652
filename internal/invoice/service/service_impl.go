package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/solara/internal/config"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	"github.com/smallbiznis/solara/internal/invoice/domain"
	"github.com/smallbiznis/solara/internal/invoice/format"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	"github.com/smallbiznis/solara/internal/providers/pdf"
	"github.com/smallbiznis/solara/pkg/db"
	"github.com/smallbiznis/solara/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	node      *snowflake.Node
	contracts contractdomain.Service
	pricing   pricingdomain.Service
	billing   *config.BillingConfigHolder
	pdf       pdf.Provider
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      domain.Repository
	Node      *snowflake.Node
	Contracts contractdomain.Service
	Pricing   pricingdomain.Service
	Billing   *config.BillingConfigHolder
	PDF       pdf.Provider `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		repo:      p.Repo,
		node:      p.Node,
		contracts: p.Contracts,
		pricing:   p.Pricing,
		billing:   p.Billing,
		pdf:       p.PDF,
	}
}

// Generate composes the contract's invoice as of the given instant and
// persists the result as an immutable snapshot.
func (s *Service) Generate(ctx context.Context, contractID snowflake.ID, at time.Time) (*domain.Invoice, error) {
	contract, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}

	req, err := s.contracts.BuildCalculationRequest(contract, at)
	if err != nil {
		return nil, err
	}

	result, err := s.pricing.Calculate(req)
	if err != nil {
		return nil, err
	}

	lines, err := json.Marshal(result.LineItems)
	if err != nil {
		return nil, fmt.Errorf("encode line items: %w", err)
	}

	months := contract.Frequency.MonthsInPeriod()
	if months == 0 {
		months = 12
	}

	// Two writers can race on NextSeq; a sequence collision gets one retry
	// with a freshly read sequence.
	var invoice *domain.Invoice
	for attempt := 0; ; attempt++ {
		seq, err := s.repo.NextSeq(ctx, s.db)
		if err != nil {
			return nil, err
		}

		billing := s.billing.Get()
		template := format.BuildTemplate(billing.InvoiceNumberPrefix, billing.InvoiceNumberWidth)
		number, err := format.FormatInvoiceNumber(template, at, seq)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		invoice = &domain.Invoice{
			ID:              s.node.Generate(),
			Number:          number,
			Seq:             seq,
			ContractID:      contract.ID,
			CustomerName:    contract.CustomerName,
			Status:          domain.InvoiceStatusIssued,
			Frequency:       contract.Frequency,
			PeriodStart:     at,
			PeriodEnd:       at.AddDate(0, months, 0),
			LineItems:       lines,
			Subtotal:        result.Subtotal,
			TotalAmount:     result.TotalPrice,
			MinimumApplied:  result.MinimumChargeApplied,
			DiscountApplied: result.DiscountApplied,
			Currency:        result.Currency,
			IssuedAt:        at,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		err = s.repo.Insert(ctx, s.db, invoice)
		if err == nil {
			break
		}
		if db.IsDuplicateKeyErr(err) && attempt == 0 {
			continue
		}
		return nil, err
	}

	s.log.Info("invoice generated",
		zap.String("number", invoice.Number),
		zap.Int64("contract_id", int64(contract.ID)),
		zap.Float64("total", invoice.TotalAmount),
		zap.Bool("minimum_applied", invoice.MinimumApplied),
	)
	return invoice, nil
}

// Preview runs the composer without persisting anything.
func (s *Service) Preview(_ context.Context, req pricingdomain.CalculationRequest) (*pricingdomain.Result, error) {
	return s.pricing.Calculate(req)
}

func (s *Service) List(ctx context.Context, p pagination.Pagination) ([]domain.Invoice, *pagination.PageInfo, error) {
	var beforeSeq int64
	if p.PageToken != "" {
		cursor, err := pagination.DecodeCursor(p.PageToken)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid page token: %w", err)
		}
		beforeSeq = cursor.Seq
	}

	limit := p.Limit()
	invoices, err := s.repo.List(ctx, s.db, beforeSeq, limit+1)
	if err != nil {
		return nil, nil, err
	}

	info := &pagination.PageInfo{}
	if len(invoices) > limit {
		invoices = invoices[:limit]
		info.HasMore = true
		info.NextPageToken = pagination.EncodeCursor(pagination.Cursor{
			Seq: invoices[len(invoices)-1].Seq,
		})
	}
	return invoices, info, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) RenderPDF(ctx context.Context, id snowflake.ID) (io.Reader, error) {
	if s.pdf == nil {
		return nil, fmt.Errorf("pdf rendering is not configured")
	}

	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := invoice.Lines()
	if err != nil {
		return nil, err
	}

	data := pdf.InvoiceData{
		CompanyName:   "Solara Asset Management",
		InvoiceNumber: invoice.Number,
		CustomerName:  invoice.CustomerName,
		IssueDate:     invoice.IssuedAt.Format("2006-01-02"),
		ServicePeriod: invoice.PeriodStart.Format("2006-01-02") + " to " + invoice.PeriodEnd.Format("2006-01-02"),
		Currency:      invoice.Currency,
		Subtotal:      formatAmount(invoice.Subtotal),
		Total:         formatAmount(invoice.TotalAmount),
	}
	for _, line := range lines {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: line.Label,
			Qty:         strconv.FormatFloat(line.Quantity, 'f', -1, 64),
			UnitPrice:   formatAmount(line.UnitPrice),
			Amount:      formatAmount(line.LineTotal),
		})
	}
	if invoice.MinimumApplied {
		data.Notes = append(data.Notes, "Total reflects the contractual minimum charge.")
	}
	if invoice.DiscountApplied {
		data.Notes = append(data.Notes, "A portfolio volume discount has been applied.")
	}

	return s.pdf.GenerateInvoice(ctx, data)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
