package scheduler

import (
	"context"

	"github.com/smallbiznis/solara/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(StartScheduler),
)

func ProvideConfig(holder *config.BillingConfigHolder) Config {
	cfg := DefaultConfig()
	cfg.RunInterval = holder.Get().SchedulerInterval
	return cfg.withDefaults()
}

func StartScheduler(lc fx.Lifecycle, holder *config.BillingConfigHolder, sched *Scheduler) {
	if !holder.Get().SchedulerEnabled {
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go sched.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
