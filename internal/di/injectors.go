//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"sud/internal"
	"sud/internal/controllers"
	"sud/internal/goals"
	"sud/internal/history"
	"sud/internal/providers"
	"sud/internal/services"
	"sud/internal/structures"
	"sud/internal/usage"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		usage.NewZstdCompressor,
		usage.NewStateFile,
		services.NewUsageTimerService,
		usage.NewTicker,

		history.NewRepository,
		history.NewArchive,
		history.NewRecorder,

		goals.NewClient,
		goals.NewService,

		controllers.NewUsageController,
		controllers.NewGoalsController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
