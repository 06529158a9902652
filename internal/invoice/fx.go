package invoice

import (
	"github.com/smallbiznis/solara/internal/invoice/repository"
	"github.com/smallbiznis/solara/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
