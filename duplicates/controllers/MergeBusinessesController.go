package controllers

import (
	"errors"

	"business-directory-backend/businesses/repositories"
	"business-directory-backend/config"
	"business-directory-backend/duplicates/services"
	"business-directory-backend/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mergeBusinessesRequest struct {
	PrimaryID    uuid.UUID   `json:"primary_id"`
	DuplicateIDs []uuid.UUID `json:"duplicate_ids"`
	Strategy     string      `json:"strategy"`
	Reason       string      `json:"reason"`
}

// MergeBusinessesController consolidates a confirmed duplicate group into its
// primary record. The merge runs in one transaction; if any duplicate cannot
// be loaded nothing is changed.
func (dc *DuplicateController) MergeBusinessesController(c *fiber.Ctx) error {
	var body mergeBusinessesRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	strategy, err := services.ParseMergeStrategy(body.Strategy)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid merge strategy",
			"error":   err.Error(),
		})
	}

	req := services.MergeRequest{
		PrimaryID:    body.PrimaryID,
		DuplicateIDs: body.DuplicateIDs,
		Strategy:     strategy,
		Reason:       body.Reason,
	}

	result, err := dc.MergeEngine.Merge(req, middleware.ActorEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidMergeRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid merge request",
				"error":   err.Error(),
			})
		case errors.Is(err, repositories.ErrBusinessNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "One or more businesses were not found",
				"error":   err.Error(),
			})
		default:
			config.Logger.Error("Merge failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Merge failed",
				"error":   err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Businesses merged successfully",
		"data":    result,
	})
}
