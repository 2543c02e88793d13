package controllers

import (
	"business-directory-backend/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ListImportJobsController handles the fetching of filtered import jobs
func (ic *ImportController) ListImportJobsController(c *fiber.Ctx) error {
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

	status := c.Query("status")
	createdBy := c.Query("created_by")
	sourceFile := c.Query("source_file")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	offset := (page - 1) * pageSize

	filters := make(map[string]string)
	if status != "" {
		filters["status"] = status
	}
	if createdBy != "" {
		filters["created_by"] = createdBy
	}
	if sourceFile != "" {
		filters["source_file"] = sourceFile
	}
	if startDate != "" {
		filters["start_date"] = startDate
	}
	if endDate != "" {
		filters["end_date"] = endDate
	}

	jobs, total, err := ic.ImportJobRepo.GetFilteredImportJobs(pageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch filtered import jobs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch import jobs",
			"error":   err.Error(),
		})
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Import jobs fetched successfully",
		"data": fiber.Map{
			"data": jobs,
			"meta": fiber.Map{
				"current_page": page,
				"page_size":    pageSize,
				"total":        total,
				"total_pages":  totalPages,
			},
		},
	})
}
