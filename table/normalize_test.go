package table

import (
	"errors"
	"testing"

	"github.com/jalad-shrimali/missed-calls/msisdn"
)

func inboundOpts() Options {
	return Options{
		Dataset:        "inbound",
		Required:       []string{"Original Caller Number", "Start Time", "Source Trunk Name"},
		NumberColumn:   "Original Caller Number",
		DedupByNumber:  true,
		TiebreakColumn: "Start Time",
	}
}

func TestNormalizeMissingColumns(t *testing.T) {
	raw := &Table{
		Headers: []string{"Original Caller Number", "Something Else"},
		Rows:    [][]string{{"070111222", "x"}},
	}
	_, err := Normalize(raw, msisdn.New("389"), inboundOpts())
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Dataset != "inbound" {
		t.Fatalf("dataset = %q", schemaErr.Dataset)
	}
	if len(schemaErr.Missing) != 2 ||
		schemaErr.Missing[0] != "Start Time" ||
		schemaErr.Missing[1] != "Source Trunk Name" {
		t.Fatalf("missing columns = %v", schemaErr.Missing)
	}
}

func TestNormalizeProjectsAndCanonicalizes(t *testing.T) {
	raw := &Table{
		Headers: []string{"Extra", "Original Caller Number", "Start Time", "Source Trunk Name"},
		Rows: [][]string{
			{"junk", "+389 70 111 222", "2024-01-01 10:00:00", "TrunkA"},
		},
	}
	got, err := Normalize(raw, msisdn.New("389"), inboundOpts())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got.Headers) != 3 {
		t.Fatalf("extraneous columns survived projection: %v", got.Headers)
	}
	if got.Canonical[0] != "70111222" {
		t.Fatalf("canonical = %q", got.Canonical[0])
	}
	// raw value stays untouched for display
	if got.Rows[0][got.Column("Original Caller Number")] != "+389 70 111 222" {
		t.Fatalf("raw number was rewritten: %v", got.Rows[0])
	}
}

func TestNormalizeDedupLaterTimestampWins(t *testing.T) {
	raw := &Table{
		Headers: []string{"Original Caller Number", "Start Time", "Source Trunk Name"},
		Rows: [][]string{
			{"070111222", "2024-01-01 10:00:00", "TrunkA"},
			{"+38970111222", "2024-01-02 09:00:00", "TrunkB"},
			{"0038970111222", "2024-01-01 08:00:00", "TrunkC"},
		},
	}
	got, err := Normalize(raw, msisdn.New("389"), inboundOpts())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("expected 1 row after dedup, got %d", len(got.Rows))
	}
	if trunk := got.Rows[0][got.Column("Source Trunk Name")]; trunk != "TrunkB" {
		t.Fatalf("kept trunk %q, want TrunkB (latest call)", trunk)
	}
}

func TestNormalizeDedupInvalidTimestampLoses(t *testing.T) {
	raw := &Table{
		Headers: []string{"Original Caller Number", "Start Time", "Source Trunk Name"},
		Rows: [][]string{
			{"070111222", "2024-01-01 10:00:00", "TrunkA"},
			{"070111222", "not a date", "TrunkB"},
		},
	}
	got, err := Normalize(raw, msisdn.New("389"), inboundOpts())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got.Rows))
	}
	if trunk := got.Rows[0][got.Column("Source Trunk Name")]; trunk != "TrunkA" {
		t.Fatalf("row with unparseable timestamp beat a valid one: kept %q", trunk)
	}
	if got.Warnings != 1 {
		t.Fatalf("expected 1 coercion warning, got %d", got.Warnings)
	}
}

func TestNormalizeDedupLastSeenWithoutTiebreak(t *testing.T) {
	opts := Options{
		Dataset:       "reference",
		Required:      []string{"GSM"},
		Optional:      []string{"Agent of insertion"},
		NumberColumn:  "GSM",
		DedupByNumber: true,
	}
	raw := &Table{
		Headers: []string{"GSM", "Agent of insertion"},
		Rows: [][]string{
			{"070111222", "Agent A"},
			{"070111222", "Agent B"},
		},
	}
	got, err := Normalize(raw, msisdn.New("389"), opts)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got.Rows))
	}
	if agent := got.Rows[0][got.Column("Agent of insertion")]; agent != "Agent B" {
		t.Fatalf("last occurrence should win, kept %q", agent)
	}
}

func TestNormalizeMissingOptionalColumnsDegrade(t *testing.T) {
	opts := Options{
		Dataset:      "reference",
		Required:     []string{"GSM"},
		Optional:     []string{"Agent of insertion", "Answer"},
		NumberColumn: "GSM",
	}
	raw := &Table{
		Headers: []string{"GSM"},
		Rows:    [][]string{{"070111222"}},
	}
	got, err := Normalize(raw, msisdn.New("389"), opts)
	if err != nil {
		t.Fatalf("optional columns must not be fatal: %v", err)
	}
	if len(got.MissingOptional) != 2 {
		t.Fatalf("missing optional = %v", got.MissingOptional)
	}
	if got.Column("Agent of insertion") != -1 {
		t.Fatalf("absent optional column should not be projected")
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, v := range []string{
		"2024-01-05 13:37:00",
		"2024-01-05T13:37:00",
		"2024-01-05",
		"05.01.2024 13:37",
	} {
		if _, err := ParseTimestamp(v); err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", v, err)
		}
	}
	if _, err := ParseTimestamp("soon"); err == nil {
		t.Fatalf("expected error for unparseable timestamp")
	}
}
