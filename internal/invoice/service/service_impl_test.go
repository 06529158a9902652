package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/config"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	contractrepo "github.com/smallbiznis/solara/internal/contract/repository"
	contractservice "github.com/smallbiznis/solara/internal/contract/service"
	invoicedomain "github.com/smallbiznis/solara/internal/invoice/domain"
	"github.com/smallbiznis/solara/internal/invoice/repository"
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
		Modules: map[string]catalogdomain.ModuleDefinition{
			"performance_monitoring": {Code: "performance_monitoring", Name: "Performance Monitoring", PricePerMWYear: 240},
		},
		Addons: map[string]catalogdomain.AddonDefinition{
			"site_onboarding": {Code: "site_onboarding", Name: "Site Onboarding", Mode: catalogdomain.ModeFlat, FlatPrice: 150},
		},
	}
}

func (catalogStub) Reload(ctx context.Context) error {
	return nil
}

type fixture struct {
	contracts contractdomain.Service
	invoices  invoicedomain.Service
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
	invoices := NewService(ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      repository.Provide(),
		Node:      node,
		Contracts: contracts,
		Pricing:   pricing,
		Billing:   holder,
	})

	return fixture{contracts: contracts, invoices: invoices}
}

func seedContract(t *testing.T, f fixture) *contractdomain.Contract {
	t.Helper()

	created, err := f.contracts.Create(context.Background(), &contractdomain.Contract{
		CustomerName:        "Helios Renewables",
		Status:              contractdomain.StatusActive,
		PackageCode:         "pro",
		TotalMW:             10,
		SiteCount:           3,
		Frequency:           pricingdomain.FrequencyQuarterly,
		SiteChargeFrequency: pricingdomain.SiteChargeAnnual,
		Currency:            "EUR",
		Modules: []contractdomain.ContractModule{
			{ModuleCode: "performance_monitoring"},
		},
	})
	require.NoError(t, err)
	return created
}

func TestGenerate_PersistsSnapshot(t *testing.T) {
	f := newFixture(t)
	contract := seedContract(t, f)
	at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	invoice, err := f.invoices.Generate(context.Background(), contract.ID, at)
	require.NoError(t, err)

	// 10MW x 1200/MW/yr base + 10MW x 240/MW/yr module, quarterly.
	assert.InDelta(t, 3600, invoice.TotalAmount, 0.01)
	assert.Equal(t, "SOL-202604-000001", invoice.Number)
	assert.Equal(t, invoicedomain.InvoiceStatusIssued, invoice.Status)
	assert.Equal(t, at.AddDate(0, 3, 0), invoice.PeriodEnd)

	lines, err := invoice.Lines()
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestGenerate_SequenceIsMonotonic(t *testing.T) {
	f := newFixture(t)
	contract := seedContract(t, f)
	at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	first, err := f.invoices.Generate(context.Background(), contract.ID, at)
	require.NoError(t, err)
	second, err := f.invoices.Generate(context.Background(), contract.ID, at.AddDate(0, 3, 0))
	require.NoError(t, err)

	assert.Equal(t, first.Seq+1, second.Seq)
	assert.NotEqual(t, first.Number, second.Number)
}

func TestList_PagesBySequenceCursor(t *testing.T) {
	f := newFixture(t)
	contract := seedContract(t, f)
	at := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	for m := 0; m < 3; m++ {
		_, err := f.invoices.Generate(context.Background(), contract.ID, at.AddDate(0, 3*m, 0))
		require.NoError(t, err)
	}

	first, info, err := f.invoices.List(context.Background(), pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, info.HasMore)
	assert.Greater(t, first[0].Seq, first[1].Seq)

	rest, info, err := f.invoices.List(context.Background(), pagination.Pagination{
		PageSize:  2,
		PageToken: info.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.False(t, info.HasMore)
	assert.Greater(t, first[1].Seq, rest[0].Seq)
}

func TestGenerate_UnknownContract(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoices.Generate(context.Background(), 999999, time.Now().UTC())

	assert.ErrorIs(t, err, contractdomain.ErrContractNotFound)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	f := newFixture(t)

	result, err := f.invoices.Preview(context.Background(), pricingdomain.CalculationRequest{
		PackageCode: "pro",
		TotalMW:     10,
		Frequency:   pricingdomain.FrequencyAnnual,
		Currency:    "EUR",
	})
	require.NoError(t, err)
	assert.InDelta(t, 12000, result.TotalPrice, 0.01)

	invoices, _, err := f.invoices.List(context.Background(), pagination.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoices.Get(context.Background(), 123456)

	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}
