package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"business-directory-backend/config"
	"business-directory-backend/db/models"

	"github.com/xuri/excelize/v2"
)

const reportDir = "./public/files"

// EnsureDirectoryExists ensures the specified directory exists before file saving
func EnsureDirectoryExists(filePath string) error {
	dir := filepath.Dir(filePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %v", err)
		}
	}
	return nil
}

// GenerateImportErrorReport writes the rejected and duplicate rows of an
// import job into an XLSX workbook, one sheet per outcome, and returns a
// public path for download links.
func GenerateImportErrorReport(job *models.ImportJob, rowErrors []models.ImportRowError, duplicates []models.ImportRowDuplicate) (string, error) {
	if err := EnsureDirectoryExists(reportDir + "/placeholder"); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	errorSheet := "Errors"
	f.SetSheetName("Sheet1", errorSheet)
	writeRow(f, errorSheet, 1, []interface{}{"Row", "Field", "Message", "Name", "Email", "Phone", "Suburb"})
	for i, e := range rowErrors {
		writeRow(f, errorSheet, i+2, []interface{}{
			e.RowIndex, e.Field, e.Message,
			e.RowData["name"], e.RowData["email"], e.RowData["phone"], e.RowData["suburb"],
		})
	}

	if len(duplicates) > 0 {
		dupSheet := "Duplicates"
		if _, err := f.NewSheet(dupSheet); err != nil {
			return "", fmt.Errorf("error creating sheet: %v", err)
		}
		writeRow(f, dupSheet, 1, []interface{}{"Row", "Reason", "Matched Business", "Confidence", "Persisted", "Name", "Phone"})
		for i, d := range duplicates {
			writeRow(f, dupSheet, i+2, []interface{}{
				d.RowIndex, d.Reason, d.MatchedID.String(), string(d.Confidence), d.Persisted,
				d.RowData["name"], d.RowData["phone"],
			})
		}
	}

	fileName := fmt.Sprintf("import_report_%s_%s.xlsx", job.ID.String(), time.Now().Format("20060102_150405"))
	savePath := filepath.Join(reportDir, fileName)
	if err := f.SaveAs(savePath); err != nil {
		return "", fmt.Errorf("error saving report: %v", err)
	}

	return "/public/files/" + fileName, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		f.SetCellValue(sheet, cell, value)
	}
}

// GenerateDownloadLink turns a public file path into an absolute URL
func GenerateDownloadLink(filePath string) string {
	baseURL := config.GetEnvOr("BASE_URL", "http://localhost:8080")
	return baseURL + filePath
}
