package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyFile     = errors.New("uploaded file is empty")
	ErrNoDataRows    = errors.New("uploaded file has a header row but no data rows")
	ErrMalformedFile = errors.New("uploaded file could not be parsed")
)

// ParseImportFile reads CSV or XLSX bytes into a header row plus data rows.
// Input problems here surface immediately to the caller; no job is created.
func ParseImportFile(filename string, data []byte) ([]string, [][]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}

	var rows [][]string
	var err error
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		rows, err = parseExcel(data)
	} else {
		rows, err = parseCSV(data)
	}
	if err != nil {
		return nil, nil, err
	}

	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}
	if len(rows) == 1 {
		return nil, nil, ErrNoDataRows
	}
	return rows[0], rows[1:], nil
}

func parseCSV(data []byte) ([][]string, error) {
	// Strip the UTF-8 BOM that Excel likes to prepend to CSV exports.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are handled per-row downstream
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return rows, nil
}
