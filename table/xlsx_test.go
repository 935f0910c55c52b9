package table

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestReadXLSX(t *testing.T) {
	buf := buildWorkbook(t, [][]string{
		{"Callee Number"},
		{"070111222"},
		{"", ""}, // blank row in the export
		{"070333444"},
	})
	got, err := ReadXLSX(buf, "outbound", 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Headers) != 1 || got.Headers[0] != "Callee Number" {
		t.Fatalf("headers = %v", got.Headers)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 data rows (blank skipped), got %d", len(got.Rows))
	}
}

func TestReadXLSXSecondRowHeader(t *testing.T) {
	buf := buildWorkbook(t, [][]string{
		{"Catpro insertion report 2024"},
		{"GSM", "Agent of insertion"},
		{"070111222", "Agent X"},
	})
	got, err := ReadXLSX(buf, "reference", 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ColumnIndex("GSM") != 0 {
		t.Fatalf("banner row was not skipped: headers = %v", got.Headers)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("expected 1 data row, got %d", len(got.Rows))
	}
}

func TestReadXLSXRejectsGarbage(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("definitely not a workbook"), "inbound", 0)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Dataset != "inbound" {
		t.Fatalf("dataset = %q", parseErr.Dataset)
	}
}
