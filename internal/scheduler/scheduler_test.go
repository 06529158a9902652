package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/clock"
	"github.com/smallbiznis/solara/internal/config"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	contractrepo "github.com/smallbiznis/solara/internal/contract/repository"
	contractservice "github.com/smallbiznis/solara/internal/contract/service"
	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/solara/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/solara/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/solara/internal/invoice/service"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	pricingservice "github.com/smallbiznis/solara/internal/pricing/service"
	"github.com/smallbiznis/solara/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type catalogStub struct{}

func (catalogStub) Snapshot() *catalogdomain.Catalog {
	return &catalogdomain.Catalog{
		Packages: map[string]catalogdomain.PackageDefinition{
			"pro": {Code: "pro", Name: "Pro", Kind: catalogdomain.PackagePro, BaseRatePerMW: 1200},
		},
		Modules: map[string]catalogdomain.ModuleDefinition{},
		Addons:  map[string]catalogdomain.AddonDefinition{},
	}
}

func (catalogStub) Reload(ctx context.Context) error {
	return nil
}

type identityCurrency struct{}

func (identityCurrency) ToEUR(ctx context.Context, amount float64, currency string) currencydomain.Conversion {
	return currencydomain.Conversion{Amount: amount, Rate: 1, Source: currencydomain.SourceIdentity}
}

func (identityCurrency) FromEUR(ctx context.Context, amount float64, currency string) currencydomain.Conversion {
	return currencydomain.Conversion{Amount: amount, Rate: 1, Source: currencydomain.SourceIdentity}
}

func (identityCurrency) UpsertRate(ctx context.Context, currency string, ratePerEUR float64) (*currencydomain.ExchangeRate, error) {
	return nil, nil
}

func (identityCurrency) ListRates(ctx context.Context) ([]currencydomain.ExchangeRate, error) {
	return nil, nil
}

type fixture struct {
	clock     *clock.FakeClock
	contracts contractdomain.Service
	invoices  invoicedomain.Service
	sched     *Scheduler
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&contractdomain.Contract{},
		&contractdomain.ContractModule{},
		&contractdomain.ContractAddon{},
		&invoicedomain.Invoice{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	holder, err := config.NewBillingConfigHolder()
	require.NoError(t, err)

	contracts := contractservice.NewService(contractservice.ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		Repo:    contractrepo.Provide(),
		Node:    node,
		Catalog: catalogStub{},
	})
	pricing := pricingservice.NewService(pricingservice.ServiceParam{
		Log:        zap.NewNop(),
		CatalogSvc: catalogStub{},
	})
	invoices := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      invoicerepo.Provide(),
		Node:      node,
		Contracts: contracts,
		Pricing:   pricing,
		Billing:   holder,
	})

	fakeClock := clock.NewFakeClock(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	sched, err := New(Params{
		Log:         zap.NewNop(),
		ContractSvc: contracts,
		InvoiceSvc:  invoices,
		PricingSvc:  pricing,
		CurrencySvc: identityCurrency{},
		Clock:       fakeClock,
	})
	require.NoError(t, err)

	return fixture{clock: fakeClock, contracts: contracts, invoices: invoices, sched: sched}
}

func seedActiveContract(t *testing.T, f fixture, frequency pricingdomain.BillingFrequency) *contractdomain.Contract {
	t.Helper()

	start := f.clock.Now()
	created, err := f.contracts.Create(context.Background(), &contractdomain.Contract{
		CustomerName:        "Helios Renewables",
		Status:              contractdomain.StatusActive,
		PackageCode:         "pro",
		TotalMW:             10,
		SiteCount:           3,
		Frequency:           frequency,
		SiteChargeFrequency: pricingdomain.SiteChargeAnnual,
		Currency:            "EUR",
		StartDate:           start,
		NextInvoiceAt:       &start,
	})
	require.NoError(t, err)
	return created
}

func TestRunDueInvoices_GeneratesAndAdvances(t *testing.T) {
	f := newFixture(t)
	contract := seedActiveContract(t, f, pricingdomain.FrequencyQuarterly)

	generated, err := f.sched.RunDueInvoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, generated)

	invoices, _, err := f.invoices.List(context.Background(), pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, contract.ID, invoices[0].ContractID)

	updated, err := f.contracts.Get(context.Background(), contract.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.NextInvoiceAt)
	assert.WithinDuration(t, contract.StartDate.AddDate(0, 3, 0), updated.NextInvoiceAt.UTC(), time.Second)
}

func TestRunDueInvoices_NothingDue(t *testing.T) {
	f := newFixture(t)
	seedActiveContract(t, f, pricingdomain.FrequencyQuarterly)

	// First pass consumes the due contract.
	_, err := f.sched.RunDueInvoices(context.Background())
	require.NoError(t, err)

	generated, err := f.sched.RunDueInvoices(context.Background())
	require.NoError(t, err)
	assert.Zero(t, generated)
}

func TestRunDueInvoices_DueAgainAfterClockAdvance(t *testing.T) {
	f := newFixture(t)
	seedActiveContract(t, f, pricingdomain.FrequencyQuarterly)

	_, err := f.sched.RunDueInvoices(context.Background())
	require.NoError(t, err)

	f.clock.Advance(92 * 24 * time.Hour)

	generated, err := f.sched.RunDueInvoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, generated)

	invoices, _, err := f.invoices.List(context.Background(), pagination.Pagination{})
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}

func TestProjectRevenue_AccumulatesMonthlyTotals(t *testing.T) {
	f := newFixture(t)
	seedActiveContract(t, f, pricingdomain.FrequencyQuarterly)

	projection, err := f.sched.ProjectRevenue(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, projection, 3)

	// 10MW x 1200/MW/yr = 12000/yr = 1000/month regardless of frequency.
	assert.InDelta(t, 1000, projection["2026-01"], 0.01)
	assert.InDelta(t, 1000, projection["2026-02"], 0.01)
	assert.InDelta(t, 1000, projection["2026-03"], 0.01)
}

func TestProjectRevenue_SkipsInactiveContracts(t *testing.T) {
	f := newFixture(t)

	draft := seedActiveContract(t, f, pricingdomain.FrequencyAnnual)
	draft.Status = contractdomain.StatusTerminated
	_, err := f.contracts.Update(context.Background(), draft)
	require.NoError(t, err)

	projection, err := f.sched.ProjectRevenue(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, projection["2026-01"])
}
