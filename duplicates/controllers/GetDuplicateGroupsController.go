package controllers

import (
	"business-directory-backend/config"
	"business-directory-backend/duplicates/services"
	imports "business-directory-backend/imports/services"
	"business-directory-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GetDuplicateGroupsController clusters matching businesses into review
// groups. Groups are computed on demand over the active record window, then
// paginated in memory so page boundaries stay stable between calls.
func (dc *DuplicateController) GetDuplicateGroupsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid pagination parameters",
			"error":   err.Error(),
		})
	}

	mode := imports.ParseMatchMode(c.Query("mode", string(imports.StrictMatch)))
	resolvedFilter := c.Query("resolved")
	if resolvedFilter != "" && resolvedFilter != "resolved" && resolvedFilter != "unresolved" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid resolved parameter",
			"error":   "resolved must be one of: resolved, unresolved",
		})
	}

	filters := make(map[string]string)
	if suburb := c.Query("suburb"); suburb != "" {
		filters["suburb"] = suburb
	}
	if category := c.Query("category"); category != "" {
		filters["category"] = category
	}

	groups, stats, err := dc.GroupBuilder.BuildGroups(mode, filters, resolvedFilter)
	if err != nil {
		config.Logger.Error("Failed to build duplicate groups", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to build duplicate groups",
			"error":   err.Error(),
		})
	}

	total := len(groups)
	start := (params.Page - 1) * params.PageSize
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	pageGroups := groups[start:end]
	if pageGroups == nil {
		pageGroups = []services.DuplicateGroup{}
	}

	response := pagination.NewPaginatedResponse(c, pageGroups, int64(total), params)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Duplicate groups fetched successfully",
		"data":    response,
		"stats":   stats,
	})
}

// GetDuplicateStatsController returns the stats cached by the last scheduled
// scan, falling back to 404 when no scan has run yet.
func (dc *DuplicateController) GetDuplicateStatsController(c *fiber.Ctx) error {
	stats, err := services.CachedStats(c.Context(), dc.RedisClient)
	if err != nil {
		config.Logger.Error("Failed to read cached duplicate stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to read duplicate stats",
		})
	}
	if stats == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "No scan results available yet",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}
