// Package table holds the in-memory tabular model the analysis runs on:
// parsed spreadsheet rows, schema validation, and the normalization pass
// that derives the canonical-number column.
package table

import (
	"fmt"
	"strings"
)

// Table is a raw tabular dataset: one header row plus data rows. Cell values
// are whatever the spreadsheet parser produced; short rows are legal.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ColumnIndex returns the position of a column by its exact name (leading
// and trailing whitespace on the stored header is ignored), or -1. Dataset
// column names are a case-sensitive contract, so there is no fuzzy matching
// here.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at idx, tolerating short rows.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// SchemaError reports required columns missing from a dataset. Fatal for
// the run that hit it; the caller surfaces dataset and column names so the
// operator can fix the source file.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.Dataset, strings.Join(e.Missing, ", "))
}

// ParseError wraps a failure to read an input artifact as tabular data.
type ParseError struct {
	Dataset string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse input: %v", e.Dataset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
