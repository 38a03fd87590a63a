//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"watchtime/internal"
	"watchtime/internal/controllers"
	"watchtime/internal/providers"
	"watchtime/internal/services"
	"watchtime/internal/storage"
	"watchtime/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewStoreProvider,
		storage.NewScheduler,
		services.NewAggregationService,
		services.NewReportService,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
