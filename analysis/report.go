package analysis

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/missed-calls/msisdn"
)

// Language selects the literals used in the report's Status column.
type Language string

const (
	LangMacedonian Language = "mk"
	LangEnglish    Language = "en"
)

const (
	statusEnteredMK    = "✅ Внесен во систем"
	statusNotEnteredMK = "❌ НЕ е внесен"
	statusEnteredEN    = "Entered"
	statusNotEnteredEN = "Not entered"
)

func statusLabel(lang Language, entered bool) string {
	if lang == LangEnglish {
		if entered {
			return statusEnteredEN
		}
		return statusNotEnteredEN
	}
	if entered {
		return statusEnteredMK
	}
	return statusNotEnteredMK
}

// AssembleOptions are the presentation knobs of one report.
type AssembleOptions struct {
	Language       Language
	NotEnteredOnly bool
	Canon          msisdn.Canonicalizer
}

// Assemble renders the run into the stable external schema: a header row
// followed by one row per missed call. Status and Agent appear only when a
// reference dataset was supplied, Operator only when the prefix lookup ran.
// Everything here is cosmetic; all matching happened before this point.
func Assemble(res *Result, opts AssembleOptions) [][]string {
	header := []string{"Phone", "Date", "Trunk"}
	if res.HasReference {
		header = append(header, "Status", "Agent")
	}
	if res.HasOperators {
		header = append(header, "Operator")
	}

	rows := [][]string{header}
	for _, rec := range res.Records {
		if opts.NotEnteredOnly && rec.Entered {
			continue
		}
		phone := opts.Canon.Display(rec.Canonical)
		if phone == "" {
			phone = rec.RawNumber
		}
		row := []string{phone, rec.Date, rec.Trunk}
		if res.HasReference {
			row = append(row, statusLabel(opts.Language, rec.Entered), rec.Agent)
		}
		if res.HasOperators {
			row = append(row, rec.Operator)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteXLSX writes the assembled rows as a single-sheet workbook with one
// header row and no index column.
func WriteXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "missed_calls"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.Write(w)
}
