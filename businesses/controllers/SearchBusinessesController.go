package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// SearchBusinessesController runs a full-text query against the search index.
func (bc *BusinessController) SearchBusinessesController(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Search query is required",
		})
	}

	size := c.QueryInt("size", 20)
	if size <= 0 || size > 100 {
		size = 20
	}

	results, err := bc.SearchRepo.SearchBusinesses(query, size)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	var matches []interface{}
	for _, hit := range results.Hits {
		matches = append(matches, fiber.Map{
			"id":     hit.ID,
			"score":  hit.Score,
			"fields": hit.Fields,
		})
	}

	return c.JSON(fiber.Map{
		"results": matches,
		"total":   results.Total,
	})
}
