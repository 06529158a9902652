package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/clock"
	"github.com/smallbiznis/solara/internal/config"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/solara/internal/invoice/domain"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	revenuedomain "github.com/smallbiznis/solara/internal/revenue/domain"
	"github.com/smallbiznis/solara/internal/scheduler"
	"github.com/smallbiznis/solara/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type catalogStub struct {
	snapshot *catalogdomain.Catalog
}

func (s *catalogStub) Snapshot() *catalogdomain.Catalog { return s.snapshot }
func (s *catalogStub) Reload(ctx context.Context) error { return nil }

type pricingStub struct{}

func (pricingStub) Calculate(req pricingdomain.CalculationRequest) (*pricingdomain.Result, error) {
	return &pricingdomain.Result{TotalPrice: 1200, Currency: "EUR"}, nil
}

type contractStub struct {
	contracts map[snowflake.ID]*contractdomain.Contract
}

func (s *contractStub) Create(ctx context.Context, c *contractdomain.Contract) (*contractdomain.Contract, error) {
	return c, nil
}

func (s *contractStub) Update(ctx context.Context, c *contractdomain.Contract) (*contractdomain.Contract, error) {
	return c, nil
}

func (s *contractStub) Get(ctx context.Context, id snowflake.ID) (*contractdomain.Contract, error) {
	if c, ok := s.contracts[id]; ok {
		return c, nil
	}
	return nil, contractdomain.ErrContractNotFound
}

func (s *contractStub) List(ctx context.Context) ([]contractdomain.Contract, error) {
	out := make([]contractdomain.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, *c)
	}
	return out, nil
}

func (s *contractStub) UpdateCapacity(ctx context.Context, id snowflake.ID, totalMW float64, siteCount int) (*contractdomain.Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.TotalMW = totalMW
	c.SiteCount = siteCount
	return c, nil
}

func (s *contractStub) ListDue(ctx context.Context, before time.Time) ([]contractdomain.Contract, error) {
	return nil, nil
}

func (s *contractStub) ScheduleNext(ctx context.Context, id snowflake.ID, next *time.Time) error {
	return nil
}

func (s *contractStub) BuildCalculationRequest(c *contractdomain.Contract, at time.Time) (pricingdomain.CalculationRequest, error) {
	return pricingdomain.CalculationRequest{PackageCode: c.PackageCode}, nil
}

type invoiceStub struct {
	previewErr error
}

func (s *invoiceStub) Generate(ctx context.Context, contractID snowflake.ID, at time.Time) (*invoicedomain.Invoice, error) {
	return &invoicedomain.Invoice{ContractID: contractID, Number: "SOL-202601-000001"}, nil
}

func (s *invoiceStub) Preview(ctx context.Context, req pricingdomain.CalculationRequest) (*pricingdomain.Result, error) {
	if s.previewErr != nil {
		return nil, s.previewErr
	}
	return &pricingdomain.Result{TotalPrice: 3600, Currency: "EUR"}, nil
}

func (s *invoiceStub) List(ctx context.Context, p pagination.Pagination) ([]invoicedomain.Invoice, *pagination.PageInfo, error) {
	return nil, &pagination.PageInfo{}, nil
}

func (s *invoiceStub) Get(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	return nil, invoicedomain.ErrInvoiceNotFound
}

func (s *invoiceStub) RenderPDF(ctx context.Context, id snowflake.ID) (io.Reader, error) {
	return nil, invoicedomain.ErrInvoiceNotFound
}

type currencyStub struct{}

func (currencyStub) ToEUR(ctx context.Context, amount float64, currency string) currencydomain.Conversion {
	return currencydomain.Conversion{Amount: amount, Rate: 1, Source: currencydomain.SourceIdentity}
}

func (currencyStub) FromEUR(ctx context.Context, amount float64, currency string) currencydomain.Conversion {
	return currencydomain.Conversion{Amount: amount, Rate: 1, Source: currencydomain.SourceIdentity}
}

func (currencyStub) UpsertRate(ctx context.Context, currency string, ratePerEUR float64) (*currencydomain.ExchangeRate, error) {
	return &currencydomain.ExchangeRate{Currency: currency, RatePerEUR: ratePerEUR}, nil
}

func (currencyStub) ListRates(ctx context.Context) ([]currencydomain.ExchangeRate, error) {
	return nil, nil
}

type revenueStub struct{}

func (revenueStub) UpsertLines(ctx context.Context, lines []revenuedomain.RevenueLine) (int, error) {
	return len(lines), nil
}

func (revenueStub) ListLines(ctx context.Context) ([]revenuedomain.RevenueLine, error) {
	return nil, nil
}

func (revenueStub) Report(ctx context.Context) (*revenuedomain.Report, error) {
	return &revenuedomain.Report{Currency: "EUR", ARR: 4800}, nil
}

func newTestServer(t *testing.T, invoices *invoiceStub) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	contracts := &contractStub{contracts: map[snowflake.ID]*contractdomain.Contract{}}
	sched, err := scheduler.New(scheduler.Params{
		Log:         zap.NewNop(),
		ContractSvc: contracts,
		InvoiceSvc:  invoices,
		PricingSvc:  pricingStub{},
		CurrencySvc: currencyStub{},
		Clock:       clock.NewSystemClock(),
	})
	require.NoError(t, err)

	return NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{HTTPAddr: ":0"},
		CatalogSvc:  &catalogStub{snapshot: &catalogdomain.Catalog{}},
		PricingSvc:  pricingStub{},
		ContractSvc: contracts,
		InvoiceSvc:  invoices,
		CurrencySvc: currencyStub{},
		RevenueSvc:  revenueStub{},
		Scheduler:   sched,
	})
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestPreviewCalculation(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodPost, "/api/pricing/preview",
		`{"package_code":"pro","total_mw":10,"frequency":"QUARTERLY","currency":"EUR"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_price":3600`)
}

func TestPreviewUnknownPackageMapsToValidationError(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{
		previewErr: fmt.Errorf("%w: enterprise", pricingdomain.ErrUnknownPackage),
	})

	rec := doRequest(srv, http.MethodPost, "/api/pricing/preview",
		`{"package_code":"enterprise"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
	assert.Contains(t, rec.Body.String(), "unknown_package")
}

func TestPreviewMalformedBody(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodPost, "/api/pricing/preview", `{"package_code":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContractInvalidID(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodGet, "/api/contracts/not-a-number", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_id")
}

func TestGetContractNotFound(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodGet, "/api/contracts/123456789", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetInvoiceNotFound(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodGet, "/api/invoices/123456789", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertExchangeRateRejectsBadCurrency(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodPut, "/api/exchange-rates/EURO", `{"rate_per_eur":1.09}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_currency")
}

func TestUpsertExchangeRate(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodPut, "/api/exchange-rates/usd", `{"rate_per_eur":1.09}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"USD"`)
}

func TestRevenueReport(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodGet, "/api/revenue/report", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"arr":4800`)
}

func TestRevenueProjectionRejectsBadMonths(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodGet, "/api/revenue/projection?months=0", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateInvoiceRejectsBadTimestamp(t *testing.T) {
	srv := newTestServer(t, &invoiceStub{})

	rec := doRequest(srv, http.MethodPost, "/api/contracts/123456789/invoices?at=yesterday", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_timestamp")
}
