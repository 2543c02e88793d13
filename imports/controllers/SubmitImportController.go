package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"business-directory-backend/config"
	"business-directory-backend/imports/services"
	"business-directory-backend/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SubmitImportController accepts a CSV/XLSX upload plus configuration and
// starts a bulk import. The call returns as soon as the job record exists;
// processing continues in the background.
func (ic *ImportController) SubmitImportController(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to get file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to open uploaded file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to read uploaded file"})
	}

	createdBy := middleware.ActorEmail(c)
	if createdBy == "" {
		createdBy = c.FormValue("created_by")
	}
	if createdBy == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing 'created_by' field in FormData"})
	}

	cfg := services.ImportConfig{
		DryRun:           c.FormValue("dry_run") == "true",
		PreviewOnly:      c.FormValue("preview_only") == "true",
		SkipValidation:   c.FormValue("skip_validation") == "true",
		StrictValidation: c.FormValue("strict_validation") == "true",
		DedupeMode:       services.ParseMatchMode(c.FormValue("dedupe_mode")),
		DedupeScope:      services.ParseDedupeScope(c.FormValue("dedupe_scope")),
		PhonePattern:     config.GetEnv("PHONE_REGEX"),
	}
	if raw := c.FormValue("batch_size"); raw != "" {
		cfg.BatchSize, _ = strconv.Atoi(raw)
	}
	if raw := c.FormValue("max_errors"); raw != "" {
		cfg.MaxErrors, _ = strconv.Atoi(raw)
	}
	if raw := c.FormValue("mapping_overrides"); raw != "" {
		overrides := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "mapping_overrides must be a JSON object"})
		}
		cfg.FieldMappingOverrides = overrides
	}

	job, preview, err := ic.Orchestrator.Submit(fileHeader.Filename, data, cfg, createdBy)
	if err != nil {
		if errors.Is(err, services.ErrEmptyFile) || errors.Is(err, services.ErrNoDataRows) || errors.Is(err, services.ErrMalformedFile) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		config.Logger.Error("Failed to submit import", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to submit import"})
	}

	if job == nil {
		// Preview-only: nothing durable was created.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Preview generated",
			"preview": preview,
		})
	}

	response := fiber.Map{
		"message": "Import submitted",
		"job_id":  job.ID,
		"status":  job.Status,
	}
	if preview != nil {
		response["preview"] = preview
	}
	return c.Status(fiber.StatusAccepted).JSON(response)
}
