package tabular

import (
	"errors"
	"strings"
	"testing"
)

func teamFields() []Field {
	return []Field{
		{Name: "teamID", Required: true, Predicates: []Predicate{Exact("teamId")}},
		{Name: "fullName", Required: true, Predicates: []Predicate{Exact("fullName"), ContainsExcept("name", "abbrev")}},
		{Name: "abbrev", Predicates: []Predicate{Exact("abbrevName"), Contains("abbrev")}},
	}
}

func TestDecodeResolvesExactHeaders(t *testing.T) {
	t.Parallel()

	raw := "teamId,fullName,abbrevName\n4806,Air Force,AF\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(table.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(table.Records))
	}

	record := table.Records[0]
	if got := record.Value("teamID"); got != "4806" {
		t.Fatalf("teamID = %q, want %q", got, "4806")
	}
	if got := record.Value("fullName"); got != "Air Force" {
		t.Fatalf("fullName = %q, want %q", got, "Air Force")
	}
	if got := record.Value("abbrev"); got != "AF" {
		t.Fatalf("abbrev = %q, want %q", got, "AF")
	}
}

func TestDecodeResolvesDriftedHeaders(t *testing.T) {
	t.Parallel()

	// Later feed releases rename columns; substring predicates still bind.
	raw := "TEAMID,TeamFullName,AbbrevCode\n4806,Air Force,AF\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	record := table.Records[0]
	if got := record.Value("fullName"); got != "Air Force" {
		t.Fatalf("fullName = %q, want %q", got, "Air Force")
	}
	if got := record.Value("abbrev"); got != "AF" {
		t.Fatalf("abbrev = %q, want %q", got, "AF")
	}
}

func TestDecodeContainsExceptSkipsExcludedHeader(t *testing.T) {
	t.Parallel()

	// "abbrevName" contains "name" but must not satisfy the fullName field.
	raw := "abbrevName,displayName,teamId\nAF,Air Force,4806\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	record := table.Records[0]
	if got := record.Value("fullName"); got != "Air Force" {
		t.Fatalf("fullName = %q, want %q", got, "Air Force")
	}
}

func TestDecodePredicateOrderBeatsHeaderOrder(t *testing.T) {
	t.Parallel()

	// The exact predicate is tried across all headers before any fallback,
	// so a leftmost substring match does not shadow an exact match further
	// right.
	fields := []Field{
		{Name: "abbrev", Predicates: []Predicate{Exact("abbrevName"), Contains("abbrev")}},
	}
	raw := "abbrevLegacy,abbrevName\nold,AF\n"

	table, err := Decode(raw, fields)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got := table.Records[0].Value("abbrev"); got != "AF" {
		t.Fatalf("abbrev = %q, want %q", got, "AF")
	}
}

func TestDecodeMissingRequiredHeader(t *testing.T) {
	t.Parallel()

	raw := "code,city\nAF,Colorado Springs\n"

	_, err := Decode(raw, teamFields())
	if err == nil {
		t.Fatal("expected schema error, got nil")
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if schemaErr.Field != "teamID" {
		t.Fatalf("SchemaError.Field = %q, want %q", schemaErr.Field, "teamID")
	}
}

func TestDecodeDropsRowsMissingRequiredValues(t *testing.T) {
	t.Parallel()

	raw := "teamId,fullName,abbrevName\n" +
		"4806,Air Force,AF\n" +
		",Orphan Team,OT\n" +
		"4807,,NV\n" +
		"4808,Navy,NV\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(table.Records))
	}
	if table.Dropped != 2 {
		t.Fatalf("Dropped = %d, want 2", table.Dropped)
	}
}

func TestDecodePadsShortRows(t *testing.T) {
	t.Parallel()

	raw := "teamId,fullName,abbrevName\n4806,Air Force\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	record := table.Records[0]
	if got := record.Value("abbrev"); got != "" {
		t.Fatalf("abbrev = %q, want empty for short row", got)
	}
	if record.Has("abbrev") {
		t.Fatal("Has(abbrev) = true for short row")
	}
}

func TestDecodeTrimsCellsAndToleratesCRLF(t *testing.T) {
	t.Parallel()

	raw := "teamId,fullName,abbrevName\r\n 4806 , Air Force ,AF\r\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got := table.Records[0].Value("fullName"); got != "Air Force" {
		t.Fatalf("fullName = %q, want %q", got, "Air Force")
	}
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	t.Parallel()

	raw := "teamId,fullName,abbrevName\n\n4806,Air Force,AF\n\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(table.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(table.Records))
	}
	if table.Dropped != 0 {
		t.Fatalf("Dropped = %d, want 0", table.Dropped)
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := Decode("", teamFields()); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := Decode("\n\n", teamFields()); err == nil {
		t.Fatal("expected error for whitespace-only input")
	}
}

func TestDecodeCustomDelimiter(t *testing.T) {
	t.Parallel()

	decoder := Decoder{Delimiter: "|"}
	raw := "teamId|fullName|abbrevName\n4806|Air Force|AF\n"

	table, err := decoder.Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got := table.Records[0].Value("fullName"); got != "Air Force" {
		t.Fatalf("fullName = %q, want %q", got, "Air Force")
	}
}

func TestColumnReportsResolvedIndex(t *testing.T) {
	t.Parallel()

	raw := "teamId,fullName,abbrevName\n4806,Air Force,AF\n"

	table, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	idx, ok := table.Column("abbrev")
	if !ok || idx != 2 {
		t.Fatalf("Column(abbrev) = (%d, %v), want (2, true)", idx, ok)
	}
	if _, ok := table.Column("missing"); ok {
		t.Fatal("Column(missing) resolved unexpectedly")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	raw := "teamId,fullName,abbrevName\n4806,Air Force,AF\n4807,Navy,NV\n"

	first, err := Decode(raw, teamFields())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	// Re-emit the decoded values under the fields' own names and decode
	// again; values on every field must survive the trip.
	names := []string{"teamID", "fullName", "abbrev"}
	var sb strings.Builder
	sb.WriteString(strings.Join(names, ",") + "\n")
	for _, record := range first.Records {
		cells := make([]string, len(names))
		for i, name := range names {
			cells[i] = record.Value(name)
		}
		sb.WriteString(strings.Join(cells, ",") + "\n")
	}

	second, err := Decode(sb.String(), teamFields())
	if err != nil {
		t.Fatalf("Decode of re-emitted table returned error: %v", err)
	}
	if len(second.Records) != len(first.Records) {
		t.Fatalf("record count changed across round trip: %d != %d", len(second.Records), len(first.Records))
	}
	for i := range first.Records {
		for _, name := range names {
			before, after := first.Records[i].Value(name), second.Records[i].Value(name)
			if before != after {
				t.Fatalf("record %d field %s changed across round trip: %q != %q", i, name, before, after)
			}
		}
	}
}
