package catalog

import (
	"context"

	"github.com/smallbiznis/solara/internal/catalog/domain"
	"github.com/smallbiznis/solara/internal/catalog/repository"
	"github.com/smallbiznis/solara/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(loadOnStart),
)

func loadOnStart(lc fx.Lifecycle, svc domain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Reload(ctx)
		},
	})
}
