// Package server exposes the pricing engine over HTTP: contract management,
// invoice generation and preview, the ARR/NRR revenue report, exchange rates
// and catalog administration.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/config"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/solara/internal/invoice/domain"
	"github.com/smallbiznis/solara/internal/observability"
	obsmiddleware "github.com/smallbiznis/solara/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/solara/internal/observability/metrics"
	obstracing "github.com/smallbiznis/solara/internal/observability/tracing"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
	revenuedomain "github.com/smallbiznis/solara/internal/revenue/domain"
	"github.com/smallbiznis/solara/internal/scheduler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, gatherer prometheus.Gatherer) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, gatherer)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	catalogSvc  catalogdomain.Service
	pricingSvc  pricingdomain.Service
	contractSvc contractdomain.Service
	invoiceSvc  invoicedomain.Service
	currencySvc currencydomain.Service
	revenueSvc  revenuedomain.Service
	scheduler   *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	CatalogSvc  catalogdomain.Service
	PricingSvc  pricingdomain.Service
	ContractSvc contractdomain.Service
	InvoiceSvc  invoicedomain.Service
	CurrencySvc currencydomain.Service
	RevenueSvc  revenuedomain.Service
	Scheduler   *scheduler.Scheduler
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		catalogSvc:  p.CatalogSvc,
		pricingSvc:  p.PricingSvc,
		contractSvc: p.ContractSvc,
		invoiceSvc:  p.InvoiceSvc,
		currencySvc: p.CurrencySvc,
		revenueSvc:  p.RevenueSvc,
		scheduler:   p.Scheduler,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Catalog --------
	api.GET("/catalog", s.GetCatalog)
	api.POST("/catalog/reload", s.ReloadCatalog)

	// -------- Contracts --------
	api.GET("/contracts", s.ListContracts)
	api.POST("/contracts", s.CreateContract)
	api.GET("/contracts/:id", s.GetContractByID)
	api.PUT("/contracts/:id", s.UpdateContract)
	api.PATCH("/contracts/:id/capacity", s.UpdateContractCapacity)

	// -------- Invoices --------
	api.POST("/contracts/:id/invoices", s.GenerateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)

	// -------- Pricing preview --------
	api.POST("/pricing/preview", s.PreviewCalculation)

	// -------- Exchange rates --------
	api.GET("/exchange-rates", s.ListExchangeRates)
	api.PUT("/exchange-rates/:currency", s.UpsertExchangeRate)

	// -------- Revenue --------
	api.POST("/revenue/lines", s.UpsertRevenueLines)
	api.GET("/revenue/lines", s.ListRevenueLines)
	api.GET("/revenue/report", s.GetRevenueReport)
	api.GET("/revenue/projection", s.GetRevenueProjection)

	// -------- Scheduler --------
	api.POST("/scheduler/run", s.RunScheduler)
}
