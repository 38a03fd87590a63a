package internal

import (
	"net/http"
	"watchtime/internal/controllers"
	"watchtime/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/log", http.HandlerFunc(apiController.ReceiveReport))
	routers.Get("/day", http.HandlerFunc(apiController.GetDay))
	routers.Delete("/day", http.HandlerFunc(apiController.ResetDay))
	routers.Get("/days", http.HandlerFunc(apiController.GetDays))
	routers.Delete("/days", http.HandlerFunc(apiController.ResetAll))
	routers.Get("/rollup", http.HandlerFunc(apiController.GetRollup))
	return routers
}
