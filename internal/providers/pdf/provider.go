// Package pdf renders invoices into printable documents.
package pdf

import (
	"context"
	"io"
)

// InvoiceData is the flattened, display-ready input for the renderer. All
// amounts arrive pre-formatted so the renderer stays layout-only.
type InvoiceData struct {
	CompanyName   string
	InvoiceNumber string
	CustomerName  string
	IssueDate     string
	ServicePeriod string
	Currency      string

	Items []InvoiceItem

	Subtotal string
	Total    string
	Notes    []string
}

// InvoiceItem is one rendered line.
type InvoiceItem struct {
	Description string
	Qty         string
	UnitPrice   string
	Amount      string
}

type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
}
