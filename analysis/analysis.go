// Package analysis is the reconciliation core: it resolves which inbound
// calls were never returned and annotates them with follow-up status.
package analysis

import (
	"github.com/jalad-shrimali/missed-calls/table"
)

// Column names are the exact contract of the PBX and Catpro exports.
const (
	ColCaller = "Original Caller Number"
	ColStart  = "Start Time"
	ColTrunk  = "Source Trunk Name"
	ColCallee = "Callee Number"
	ColGSM    = "GSM"
	ColAgent  = "Agent of insertion"
	ColAnswer = "Answer"
)

// ReferenceHeaderRow: the Catpro export carries a banner line on the first
// row; the real header sits on the second.
const ReferenceHeaderRow = 1

func InboundOptions() table.Options {
	return table.Options{
		Dataset:        "inbound",
		Required:       []string{ColCaller, ColStart, ColTrunk},
		NumberColumn:   ColCaller,
		DedupByNumber:  true,
		TiebreakColumn: ColStart,
	}
}

func OutboundOptions() table.Options {
	return table.Options{
		Dataset:      "outbound",
		Required:     []string{ColCallee},
		NumberColumn: ColCallee,
	}
}

func ReferenceOptions() table.Options {
	return table.Options{
		Dataset:      "reference",
		Required:     []string{ColGSM},
		Optional:     []string{ColAgent, ColAnswer},
		NumberColumn: ColGSM,
	}
}

// Record is one missed call. Lives for a single analysis run; never stored.
type Record struct {
	RawNumber string
	Canonical string
	Date      string
	Trunk     string
	Entered   bool
	Agent     string
	Operator  string
}

// Resolve returns, in inbound row order, every inbound record whose
// canonical number does not appear among the outbound canonical numbers.
// The empty canonical number is excluded from the membership set, so an
// unidentifiable caller is never counted as called back just because some
// outbound row was unidentifiable too.
func Resolve(inbound, outbound *table.NormalizedTable) []Record {
	returned := make(map[string]struct{}, len(outbound.Canonical))
	for _, c := range outbound.Canonical {
		if c != "" {
			returned[c] = struct{}{}
		}
	}

	iNum := inbound.Column(ColCaller)
	iStart := inbound.Column(ColStart)
	iTrunk := inbound.Column(ColTrunk)

	var missed []Record
	for i, row := range inbound.Rows {
		canonical := inbound.Canonical[i]
		if canonical != "" {
			if _, ok := returned[canonical]; ok {
				continue
			}
		}
		missed = append(missed, Record{
			RawNumber: table.Cell(row, iNum),
			Canonical: canonical,
			Date:      table.Cell(row, iStart),
			Trunk:     table.Cell(row, iTrunk),
		})
	}
	return missed
}

// Enrich marks each missed record as entered in the follow-up system when
// its canonical number appears in the reference dataset, and attaches the
// responsible agent. Reference rows with a blank GSM are dropped before the
// index is built; with duplicate GSMs the last occurrence in input order
// wins.
func Enrich(records []Record, reference *table.NormalizedTable) {
	agentIdx := reference.Column(ColAgent)

	agents := make(map[string]string, len(reference.Rows))
	for i, row := range reference.Rows {
		canonical := reference.Canonical[i]
		if canonical == "" {
			continue
		}
		agents[canonical] = table.Cell(row, agentIdx)
	}

	for i := range records {
		if records[i].Canonical == "" {
			continue
		}
		if agent, ok := agents[records[i].Canonical]; ok {
			records[i].Entered = true
			records[i].Agent = agent
		}
	}
}
