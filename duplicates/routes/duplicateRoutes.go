package routes

import (
	controllers "business-directory-backend/duplicates/controllers"
	"business-directory-backend/duplicates/services"
	"business-directory-backend/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func DuplicateInitRoutes(
	app *fiber.App,
	groupBuilder *services.GroupBuilder,
	mergeEngine *services.MergeEngine,
	redisClient *redis.Client,
	appCtx *middleware.AppContext,
) {
	duplicateController := &controllers.DuplicateController{
		GroupBuilder: groupBuilder,
		MergeEngine:  mergeEngine,
		RedisClient:  redisClient,
	}

	api := app.Group("/api/v1", middleware.AdminOnly(appCtx))

	api.Get("/duplicates/groups", duplicateController.GetDuplicateGroupsController)
	api.Get("/duplicates/stats", duplicateController.GetDuplicateStatsController)
	api.Post("/duplicates/merge", duplicateController.MergeBusinessesController)
}
