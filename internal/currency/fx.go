package currency

import (
	"github.com/smallbiznis/solara/internal/currency/repository"
	"github.com/smallbiznis/solara/internal/currency/service"
	"go.uber.org/fx"
)

var Module = fx.Module("currency.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
