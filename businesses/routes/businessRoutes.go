package routes

import (
	indexing_repository "business-directory-backend/bleve/repositories"
	controllers "business-directory-backend/businesses/controllers"
	"business-directory-backend/businesses/repositories"
	"business-directory-backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func BusinessInitRoutes(
	app *fiber.App,
	businessRepo repositories.BusinessRepository,
	searchRepo indexing_repository.BusinessSearchRepositoryInterface,
	appCtx *middleware.AppContext,
) {
	businessController := &controllers.BusinessController{
		BusinessRepo: businessRepo,
		SearchRepo:   searchRepo,
	}

	api := app.Group("/api/v1", middleware.AdminOnly(appCtx))

	api.Get("/businesses/filtered", businessController.GetFilteredBusinessesController)
	api.Get("/businesses/search", businessController.SearchBusinessesController)
}
