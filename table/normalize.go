package table

import (
	"strings"
	"time"

	"github.com/jalad-shrimali/missed-calls/msisdn"
)

// Options drives one normalization pass over a raw dataset.
type Options struct {
	Dataset        string
	Required       []string // missing any of these is a SchemaError
	Optional       []string // projected when present, skipped when not
	NumberColumn   string   // column fed through the canonicalizer
	DedupByNumber  bool     // keep one row per canonical number
	TiebreakColumn string   // timestamp column deciding dedup; "" = last occurrence wins
}

// NormalizedTable is a projected dataset with the derived canonical-number
// column alongside the untouched raw values.
type NormalizedTable struct {
	Dataset   string
	Headers   []string
	Rows      [][]string
	Canonical []string    // per-row canonical number; "" = unusable source value
	Times     []time.Time // parsed tiebreak values; zero = missing or unparseable
	Warnings  int         // rows whose tiebreak value failed to parse

	// MissingOptional lists requested optional columns absent from the
	// source, so the caller can log the degraded functionality.
	MissingOptional []string
}

// Column returns the projected column position by exact name, or -1.
func (n *NormalizedTable) Column(name string) int {
	for i, h := range n.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Normalize validates the dataset's schema, projects it to the requested
// columns, derives the canonical-number column, and optionally reduces the
// rows to one per canonical number.
func Normalize(t *Table, canon msisdn.Canonicalizer, opts Options) (*NormalizedTable, error) {
	var missing []string
	srcIdx := make([]int, 0, len(opts.Required)+len(opts.Optional))
	headers := make([]string, 0, cap(srcIdx))

	for _, name := range opts.Required {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			missing = append(missing, name)
			continue
		}
		srcIdx = append(srcIdx, idx)
		headers = append(headers, name)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Dataset: opts.Dataset, Missing: missing}
	}

	var missingOpt []string
	for _, name := range opts.Optional {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			missingOpt = append(missingOpt, name)
			continue
		}
		srcIdx = append(srcIdx, idx)
		headers = append(headers, name)
	}

	numberSrc := t.ColumnIndex(opts.NumberColumn)
	tieSrc := -1
	if opts.TiebreakColumn != "" {
		tieSrc = t.ColumnIndex(opts.TiebreakColumn)
	}

	out := &NormalizedTable{
		Dataset:         opts.Dataset,
		Headers:         headers,
		MissingOptional: missingOpt,
	}

	for _, rec := range t.Rows {
		row := make([]string, len(srcIdx))
		for i, s := range srcIdx {
			row[i] = Cell(rec, s)
		}

		ts := time.Time{}
		if tieSrc >= 0 {
			if raw := Cell(rec, tieSrc); raw != "" {
				parsed, err := ParseTimestamp(raw)
				if err != nil {
					out.Warnings++
				} else {
					ts = parsed
				}
			}
		}

		out.Rows = append(out.Rows, row)
		out.Canonical = append(out.Canonical, canon.Canonical(Cell(rec, numberSrc)))
		out.Times = append(out.Times, ts)
	}

	if opts.DedupByNumber {
		out.dedup()
	}
	return out, nil
}

// dedup keeps one row per canonical number, ordered by first occurrence.
// A later row replaces the kept one when its tiebreak timestamp is valid and
// not older; a row without a valid timestamp only replaces another row
// without one (last occurrence wins on that side too).
func (n *NormalizedTable) dedup() {
	seen := map[string]int{}
	rows := n.Rows[:0]
	canonical := n.Canonical[:0]
	times := n.Times[:0]

	for i, row := range n.Rows {
		key := n.Canonical[i]
		ts := n.Times[i]
		pos, ok := seen[key]
		if !ok {
			seen[key] = len(rows)
			rows = append(rows, row)
			canonical = append(canonical, key)
			times = append(times, ts)
			continue
		}
		held := times[pos]
		replace := false
		switch {
		case !ts.IsZero() && held.IsZero():
			replace = true
		case !ts.IsZero() && !held.IsZero():
			replace = !ts.Before(held)
		case ts.IsZero() && held.IsZero():
			replace = true
		}
		if replace {
			rows[pos] = row
			times[pos] = ts
		}
	}

	n.Rows = rows
	n.Canonical = canonical
	n.Times = times
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"01-02-06 15:04",
	"01/02/2006 15:04:05",
}

// ParseTimestamp tries the timestamp spellings seen across PBX exports.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
