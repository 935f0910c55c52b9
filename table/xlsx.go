package table

import (
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of a workbook into a Table. headerRow is
// the zero-based index of the header; rows above it are discarded (the
// Catpro export puts a banner line on row 0 and the real header on row 1).
// Fully empty rows are skipped.
func ReadXLSX(r io.Reader, dataset string, headerRow int) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Dataset: dataset, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Dataset: dataset, Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Dataset: dataset, Err: err}
	}
	if headerRow < 0 {
		headerRow = 0
	}
	if len(rows) <= headerRow {
		return nil, &ParseError{Dataset: dataset, Err: errors.New("no header row")}
	}

	t := &Table{Headers: rows[headerRow]}
	for _, rec := range rows[headerRow+1:] {
		if isEmptyRow(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func isEmptyRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
