package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseImportFileCSV(t *testing.T) {
	data := []byte("name,phone\nAcme,0355550123\nApex,0399990000\n")

	headers, rows, err := ParseImportFile("upload.csv", data)

	require.NoError(t, err)
	assert.Equal(t, []string{"name", "phone"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Acme", "0355550123"}, rows[0])
}

func TestParseImportFileStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nAcme\n")...)

	headers, rows, err := ParseImportFile("upload.csv", data)

	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, headers)
	assert.Len(t, rows, 1)
}

func TestParseImportFileRaggedRowsAllowed(t *testing.T) {
	data := []byte("name,phone,email\nAcme,0355550123\nApex,0399990000,a@apex.com,extra\n")

	_, rows, err := ParseImportFile("upload.csv", data)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 4)
}

func TestParseImportFileEmpty(t *testing.T) {
	_, _, err := ParseImportFile("upload.csv", []byte("   \n"))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, _, err = ParseImportFile("upload.csv", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseImportFileHeaderOnly(t *testing.T) {
	_, _, err := ParseImportFile("upload.csv", []byte("name,phone\n"))
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestParseImportFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "suburb"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Acme", "Richmond"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	headers, rows, err := ParseImportFile("upload.xlsx", buf.Bytes())

	require.NoError(t, err)
	assert.Equal(t, []string{"name", "suburb"}, headers)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Acme", "Richmond"}, rows[0])
}

func TestParseImportFileMalformedXLSX(t *testing.T) {
	_, _, err := ParseImportFile("upload.xlsx", []byte("this is not a spreadsheet"))
	assert.ErrorIs(t, err, ErrMalformedFile)
}
