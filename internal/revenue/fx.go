package revenue

import (
	"github.com/smallbiznis/solara/internal/revenue/repository"
	"github.com/smallbiznis/solara/internal/revenue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("revenue.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
