package routes

import (
	controllers "business-directory-backend/imports/controllers"
	"business-directory-backend/imports/repositories"
	"business-directory-backend/imports/services"
	"business-directory-backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func ImportInitRoutes(
	app *fiber.App,
	orchestrator *services.ImportOrchestrator,
	importJobRepo repositories.ImportJobRepository,
	appCtx *middleware.AppContext,
) {
	importController := &controllers.ImportController{
		Orchestrator:  orchestrator,
		ImportJobRepo: importJobRepo,
	}

	api := app.Group("/api/v1", middleware.AdminOnly(appCtx))

	api.Post("/imports", importController.SubmitImportController)
	api.Get("/imports/filtered", importController.ListImportJobsController)
	api.Get("/imports/:id", importController.GetImportJobController)
	api.Post("/imports/:id/cancel", importController.CancelImportJobController)
}
