// Package domain contains persistence models for generated invoices.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	"github.com/smallbiznis/solara/pkg/db/pagination"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "DRAFT"
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	InvoiceStatusVoid   InvoiceStatus = "VOID"
)

// Invoice is an immutable snapshot of a composed billing result. Line items
// are stored as JSON exactly as calculated so later catalog edits never
// change an issued invoice.
type Invoice struct {
	ID              snowflake.ID                   `json:"id,string" gorm:"primaryKey"`
	Number          string                         `json:"number" gorm:"uniqueIndex;size:64"`
	Seq             int64                          `json:"seq" gorm:"uniqueIndex"`
	ContractID      snowflake.ID                   `json:"contract_id,string" gorm:"index"`
	CustomerName    string                         `json:"customer_name" gorm:"size:255"`
	Status          InvoiceStatus                  `json:"status" gorm:"type:text;not null;default:'ISSUED'"`
	Frequency       pricingdomain.BillingFrequency `json:"frequency" gorm:"size:16"`
	PeriodStart     time.Time                      `json:"period_start"`
	PeriodEnd       time.Time                      `json:"period_end"`
	LineItems       datatypes.JSON                 `json:"line_items"`
	Subtotal        float64                        `json:"subtotal"`
	TotalAmount     float64                        `json:"total_amount"`
	MinimumApplied  bool                           `json:"minimum_applied"`
	DiscountApplied bool                           `json:"discount_applied"`
	Currency        string                         `json:"currency" gorm:"size:3"`
	IssuedAt        time.Time                      `json:"issued_at"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Lines decodes the stored line item snapshot.
func (i Invoice) Lines() ([]pricingdomain.LineItem, error) {
	if len(i.LineItems) == 0 {
		return nil, nil
	}
	var lines []pricingdomain.LineItem
	if err := json.Unmarshal(i.LineItems, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

type Service interface {
	// Generate composes, numbers and persists an invoice for the contract
	// as of the given instant.
	Generate(ctx context.Context, contractID snowflake.ID, at time.Time) (*Invoice, error)
	// Preview runs the composer without persisting anything.
	Preview(ctx context.Context, req pricingdomain.CalculationRequest) (*pricingdomain.Result, error)
	// List pages invoices newest-first using an opaque sequence cursor.
	List(ctx context.Context, p pagination.Pagination) ([]Invoice, *pagination.PageInfo, error)
	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)
	RenderPDF(ctx context.Context, id snowflake.ID) (io.Reader, error)
}

var ErrInvoiceNotFound = errors.New("invoice_not_found")
