package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
)

// RevenueLine is one revenue-bearing invoice line synced from the accounting
// platform. InvoiceTotal and CreditAmount are denormalized onto each line so
// credit netting needs no join at reporting time.
type RevenueLine struct {
	ID           snowflake.ID                   `json:"id,string" gorm:"primaryKey"`
	InvoiceRef   string                         `json:"invoice_ref" gorm:"uniqueIndex:ux_revenue_lines_invoice_label;size:64"`
	AccountCode  string                         `json:"account_code" gorm:"index;size:32"`
	Label        string                         `json:"label" gorm:"uniqueIndex:ux_revenue_lines_invoice_label;size:255"`
	Amount       float64                        `json:"amount"`
	Currency     string                         `json:"currency" gorm:"size:3"`
	Frequency    pricingdomain.BillingFrequency `json:"frequency" gorm:"size:16"`
	InvoiceTotal float64                        `json:"invoice_total"`
	CreditAmount float64                        `json:"credit_amount"`
	CreatedAt    time.Time                      `json:"created_at"`
	UpdatedAt    time.Time                      `json:"updated_at"`
}

func (RevenueLine) TableName() string {
	return "revenue_lines"
}

// Allocation is the outcome of classifying a set of lines. ARR is annualized;
// NRR is the one-time total as invoiced.
type Allocation struct {
	ARR      float64 `json:"arr"`
	NRR      float64 `json:"nrr"`
	Unmapped int     `json:"unmapped"`
}

// Report is the EUR-normalized ARR/NRR aggregation over all stored lines.
type Report struct {
	Currency  string     `json:"currency"`
	ARR       float64    `json:"arr"`
	NRR       float64    `json:"nrr"`
	LineCount int        `json:"line_count"`
	Unmapped  int        `json:"unmapped"`
	AsOf      time.Time  `json:"as_of"`
	ByAccount []ByBucket `json:"by_account"`
}

type ByBucket struct {
	AccountCode string                    `json:"account_code"`
	Revenue     catalogdomain.RevenueType `json:"revenue"`
	Amount      float64                   `json:"amount"`
}

type Service interface {
	UpsertLines(ctx context.Context, lines []RevenueLine) (int, error)
	ListLines(ctx context.Context) ([]RevenueLine, error)
	Report(ctx context.Context) (*Report, error)
}
