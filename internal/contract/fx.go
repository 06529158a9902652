package contract

import (
	"github.com/smallbiznis/solara/internal/contract/repository"
	"github.com/smallbiznis/solara/internal/contract/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contract.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
