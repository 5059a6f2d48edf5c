package internal

import (
	"net/http"

	"sud/internal/controllers"
	"sud/internal/providers"
	"sud/internal/structures"
)

func InitRoutes(usageController *controllers.UsageController, goalsController *controllers.GoalsController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/activity", http.HandlerFunc(usageController.ReceiveActivity))
	routers.Get("/status", http.HandlerFunc(usageController.GetStatus))
	routers.Post("/minutes", http.HandlerFunc(usageController.AddMinutes))
	routers.Post("/reset", http.HandlerFunc(usageController.Reset))
	routers.Get("/streak", http.HandlerFunc(usageController.GetStreak))
	routers.Get("/history", http.HandlerFunc(usageController.GetHistory))
	routers.Get("/history/day", http.HandlerFunc(usageController.GetHistoryDay))

	routers.Get("/goals", http.HandlerFunc(goalsController.GetGoals))
	routers.Post("/goals/create", http.HandlerFunc(goalsController.CreateGoal))
	routers.Post("/goals/update", http.HandlerFunc(goalsController.UpdateGoal))
	routers.Post("/goals/toggle", http.HandlerFunc(goalsController.ToggleGoal))
	routers.Post("/goals/delete", http.HandlerFunc(goalsController.DeleteGoal))
	routers.Post("/goals/refresh", http.HandlerFunc(goalsController.RefreshGoals))
	return routers
}
