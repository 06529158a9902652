package service

import (
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/revenue/domain"
)

// Allocate classifies lines into annual recurring and non-recurring revenue.
// Recurring amounts are annualized from their billing frequency; one-time
// amounts are summed as invoiced. Account codes missing from the mapping
// count as non-recurring, which under-counts ARR rather than inflating it.
func Allocate(lines []domain.RevenueLine, mapping map[string]catalogdomain.RevenueType) domain.Allocation {
	var out domain.Allocation
	for _, line := range lines {
		net := netAmount(line)

		revenue, mapped := mapping[line.AccountCode]
		if !mapped {
			out.Unmapped++
			revenue = catalogdomain.RevenueNonRecurring
		}

		if revenue == catalogdomain.RevenueRecurring {
			factor := line.Frequency.AnnualFactor()
			if factor <= 0 {
				// Unknown cadence, treat the amount as already annual.
				factor = 1
			}
			out.ARR += net * factor
			continue
		}
		out.NRR += net
	}
	return out
}

// netAmount applies proportional credit netting. A credit note offsetting an
// invoice shaves every line by the same ratio rather than hitting one bucket.
func netAmount(line domain.RevenueLine) float64 {
	if line.CreditAmount <= 0 || line.InvoiceTotal <= 0 {
		return line.Amount
	}
	credit := line.CreditAmount
	if credit > line.InvoiceTotal {
		credit = line.InvoiceTotal
	}
	return line.Amount * (1 - credit/line.InvoiceTotal)
}
