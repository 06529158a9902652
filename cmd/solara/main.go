package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/solara/internal/catalog"
	"github.com/smallbiznis/solara/internal/clock"
	"github.com/smallbiznis/solara/internal/config"
	"github.com/smallbiznis/solara/internal/contract"
	"github.com/smallbiznis/solara/internal/currency"
	"github.com/smallbiznis/solara/internal/invoice"
	"github.com/smallbiznis/solara/internal/migration"
	"github.com/smallbiznis/solara/internal/observability"
	"github.com/smallbiznis/solara/internal/pricing"
	"github.com/smallbiznis/solara/internal/providers"
	"github.com/smallbiznis/solara/internal/revenue"
	"github.com/smallbiznis/solara/internal/scheduler"
	"github.com/smallbiznis/solara/internal/server"
	"github.com/smallbiznis/solara/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Pricing domains
		catalog.Module,
		pricing.Module,
		contract.Module,
		currency.Module,
		revenue.Module,
		invoice.Module,
		providers.Module,
		scheduler.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
