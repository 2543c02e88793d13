package services

import (
	"fmt"

	"business-directory-backend/db/models"
)

// buildPreview produces the lightweight pre-flight payload: inferred mapping,
// mapping rationales, and a sampled validation pass over the first
// PreviewRows rows. Nothing durable is created here.
func (o *ImportOrchestrator) buildPreview(headers []string, rows [][]string, mapping map[string]string, rationales []string, cfg ImportConfig) *models.ImportPreview {
	sampleSize := cfg.PreviewRows
	if sampleSize > len(rows) {
		sampleSize = len(rows)
	}

	preview := &models.ImportPreview{
		Headers:         headers,
		SampleRows:      rows[:sampleSize],
		FieldMapping:    mapping,
		Recommendations: rationales,
		TotalRows:       len(rows),
	}

	nameMapped := false
	for _, field := range mapping {
		if field == "name" {
			nameMapped = true
			break
		}
	}
	if !nameMapped {
		preview.Recommendations = append(preview.Recommendations,
			"No column is mapped to 'name'; every row will be rejected unless a mapping override is supplied")
	}
	if unmapped := len(headers) - len(mapping); unmapped > 0 {
		preview.Recommendations = append(preview.Recommendations,
			fmt.Sprintf("%d column(s) are unmapped and will be ignored", unmapped))
	}

	validator := NewRowValidator(cfg.StrictValidation, cfg.SkipValidation)
	validator.SetPhonePattern(cfg.PhonePattern)

	for i, row := range rows[:sampleSize] {
		record := ApplyMapping(headers, row, mapping)
		result := validator.Validate(record)
		for _, v := range append(result.Errors, result.Warnings...) {
			preview.Issues = append(preview.Issues, models.ImportRowError{
				RowIndex: i,
				Field:    v.Field,
				Message:  v.Message,
			})
		}
	}

	return preview
}
