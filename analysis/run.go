package analysis

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jalad-shrimali/missed-calls/msisdn"
	"github.com/jalad-shrimali/missed-calls/table"
)

// RunRequest carries one analysis run's fully resolved inputs. The caller
// checks the "all required inputs present" precondition; by the time Run is
// invoked there is no notion of waiting.
type RunRequest struct {
	Inbound   *table.Table
	Outbound  *table.Table
	Reference *table.Table // nil when the Catpro report was not supplied

	Canon     msisdn.Canonicalizer
	Operators *OperatorDB // nil disables operator annotation
	Logger    *zap.Logger
}

// Result of one run. Created fresh per run, discarded after export.
type Result struct {
	ID           string
	Records      []Record
	HasReference bool
	HasOperators bool
	NotEntered   int
	Warnings     int
}

// Total is the count behind the "Total N missed numbers" banner.
func (r *Result) Total() int { return len(r.Records) }

// Run executes one reconciliation: normalize the datasets, resolve the
// missed set, enrich from the reference dataset when present, and annotate
// operators when the lookup is available. Stateless; concurrent runs must
// each bring their own tables.
func Run(req RunRequest) (*Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	inbound, err := table.Normalize(req.Inbound, req.Canon, InboundOptions())
	if err != nil {
		return nil, err
	}
	outbound, err := table.Normalize(req.Outbound, req.Canon, OutboundOptions())
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:       runID,
		Records:  Resolve(inbound, outbound),
		Warnings: inbound.Warnings,
	}
	if inbound.Warnings > 0 {
		logger.Warn("unparseable start times; affected rows sort last in dedup",
			zap.Int("rows", inbound.Warnings))
	}

	if req.Reference != nil {
		reference, err := table.Normalize(req.Reference, req.Canon, ReferenceOptions())
		if err != nil {
			return nil, err
		}
		for _, col := range reference.MissingOptional {
			logger.Warn("optional reference column absent", zap.String("column", col))
		}
		Enrich(res.Records, reference)
		res.HasReference = true
	}

	if req.Operators != nil {
		req.Operators.Annotate(res.Records)
		res.HasOperators = true
	}

	for _, rec := range res.Records {
		if !rec.Entered {
			res.NotEntered++
		}
	}

	logger.Info("analysis complete",
		zap.Int("missed", res.Total()),
		zap.Int("not_entered", res.NotEntered),
		zap.Bool("reference", res.HasReference))
	return res, nil
}

// Lookup answers the single-number test check: was this number called back?
// Same canonicalization and membership rule as Resolve.
func Lookup(raw string, outbound *table.NormalizedTable, canon msisdn.Canonicalizer) (canonical string, returned bool) {
	canonical = canon.Canonical(raw)
	if canonical == "" {
		return "", false
	}
	for _, c := range outbound.Canonical {
		if c == canonical {
			return canonical, true
		}
	}
	return canonical, false
}
