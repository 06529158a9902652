package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	revenuedomain "github.com/smallbiznis/solara/internal/revenue/domain"
	"github.com/smallbiznis/solara/internal/revenue/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type catalogStub struct {
	mapping map[string]catalogdomain.RevenueType
}

func (s *catalogStub) Snapshot() *catalogdomain.Catalog {
	return &catalogdomain.Catalog{AccountMapping: s.mapping}
}

func (s *catalogStub) Reload(ctx context.Context) error {
	return nil
}

// currencyStub converts USD at a fixed 1.25 per EUR and passes through
// anything else it does not know.
type currencyStub struct{}

func (currencyStub) ToEUR(ctx context.Context, amount float64, currency string) currencydomain.Conversion {
	switch currency {
	case "", "EUR":
		return currencydomain.Conversion{Amount: amount, Rate: 1, Source: currencydomain.SourceIdentity}
	case "USD":
		return currencydomain.Conversion{Amount: amount / 1.25, Rate: 1.25, Source: currencydomain.SourceLive}
	default:
		return currencydomain.Conversion{Amount: amount, Source: currencydomain.SourceNone}
	}
}

func (currencyStub) FromEUR(ctx context.Context, amount float64, currency string) currencydomain.Conversion {
	return currencydomain.Conversion{Amount: amount, Rate: 1, Source: currencydomain.SourceIdentity}
}

func (currencyStub) UpsertRate(ctx context.Context, currency string, ratePerEUR float64) (*currencydomain.ExchangeRate, error) {
	return nil, nil
}

func (currencyStub) ListRates(ctx context.Context) ([]currencydomain.ExchangeRate, error) {
	return nil, nil
}

func newTestService(t *testing.T) revenuedomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&revenuedomain.RevenueLine{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParam{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		Node: node,
		Catalog: &catalogStub{mapping: map[string]catalogdomain.RevenueType{
			"4000": catalogdomain.RevenueRecurring,
			"4100": catalogdomain.RevenueNonRecurring,
		}},
		Currency: currencyStub{},
	})
}

func TestUpsertLines_EmptyBatchRejected(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpsertLines(context.Background(), nil)

	assert.ErrorIs(t, err, ErrEmptyLineBatch)
}

func TestUpsertLines_RepeatedSyncIsIdempotent(t *testing.T) {
	svc := newTestService(t)

	batch := []revenuedomain.RevenueLine{
		{InvoiceRef: "INV-1", Label: "Base fee", AccountCode: "4000", Amount: 100, Currency: "EUR", Frequency: pricingdomain.FrequencyAnnual},
	}
	_, err := svc.UpsertLines(context.Background(), batch)
	require.NoError(t, err)

	batch[0].Amount = 150
	batch[0].ID = 0
	_, err = svc.UpsertLines(context.Background(), batch)
	require.NoError(t, err)

	lines, err := svc.ListLines(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 150.0, lines[0].Amount)
}

func TestReport_NormalizesToEURAndAllocates(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpsertLines(context.Background(), []revenuedomain.RevenueLine{
		{InvoiceRef: "INV-1", Label: "Subscription", AccountCode: "4000", Amount: 1250, Currency: "USD", Frequency: pricingdomain.FrequencyQuarterly},
		{InvoiceRef: "INV-2", Label: "Onboarding", AccountCode: "4100", Amount: 300, Currency: "EUR", Frequency: pricingdomain.FrequencyAnnual},
	})
	require.NoError(t, err)

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	// 1250 USD -> 1000 EUR, quarterly -> x4 annualized.
	assert.InDelta(t, 4000, report.ARR, 1e-9)
	assert.InDelta(t, 300, report.NRR, 1e-9)
	assert.Equal(t, "EUR", report.Currency)
	assert.Equal(t, 2, report.LineCount)
	assert.Zero(t, report.Unmapped)
}

func TestReport_UnmappedAccountCounted(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpsertLines(context.Background(), []revenuedomain.RevenueLine{
		{InvoiceRef: "INV-3", Label: "Mystery", AccountCode: "9999", Amount: 50, Currency: "EUR", Frequency: pricingdomain.FrequencyAnnual},
	})
	require.NoError(t, err)

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Unmapped)
	assert.InDelta(t, 50, report.NRR, 1e-9)
}
