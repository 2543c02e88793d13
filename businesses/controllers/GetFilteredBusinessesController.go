package controllers

import (
	"business-directory-backend/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GetFilteredBusinessesController handles the fetching of filtered businesses
func (bc *BusinessController) GetFilteredBusinessesController(c *fiber.Ctx) error {
	pageSize := c.QueryInt("page_size", 10)
	if pageSize <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid page_size parameter",
			"error":   "page_size must be greater than 0",
		})
	}

	page := c.QueryInt("page", 1)
	if page <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid page parameter",
			"error":   "page must be greater than 0",
		})
	}

	suburb := c.Query("suburb")
	category := c.Query("category")
	status := c.Query("status")
	source := c.Query("source")
	search := c.Query("search")
	includeDuplicates := c.Query("include_duplicates")

	offset := (page - 1) * pageSize

	filters := make(map[string]string)
	if suburb != "" {
		filters["suburb"] = suburb
	}
	if category != "" {
		filters["category"] = category
	}
	if status != "" {
		filters["status"] = status
	}
	if source != "" {
		filters["source"] = source
	}
	if search != "" {
		filters["search"] = search
	}
	if includeDuplicates != "" {
		filters["include_duplicates"] = includeDuplicates
	}

	businesses, total, err := bc.BusinessRepo.GetFilteredBusinesses(pageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch filtered businesses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch businesses",
			"error":   err.Error(),
		})
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Businesses fetched successfully",
		"data": fiber.Map{
			"data": businesses,
			"meta": fiber.Map{
				"current_page": page,
				"page_size":    pageSize,
				"total":        total,
				"total_pages":  totalPages,
			},
		},
	})
}
