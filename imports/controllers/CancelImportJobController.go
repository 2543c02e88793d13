package controllers

import (
	"errors"

	"business-directory-backend/config"
	"business-directory-backend/imports/repositories"
	"business-directory-backend/imports/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CancelImportJobController requests cancellation of a running import. The
// worker notices the flag at the next batch boundary, so already-persisted
// rows stay in place.
func (ic *ImportController) CancelImportJobController(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid job ID",
		})
	}

	if err := ic.Orchestrator.Cancel(c.Context(), jobID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrJobNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Import job not found",
			})
		case errors.Is(err, services.ErrJobFinished):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Import job has already finished",
			})
		default:
			config.Logger.Error("Failed to cancel import job", zap.String("jobID", jobID.String()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to cancel import job",
				"error":   err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Cancellation requested",
	})
}
