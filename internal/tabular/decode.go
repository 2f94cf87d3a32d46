// Package tabular decodes the delimited text tables served by the analytics
// feed. The feed emits plain separator-joined rows with no quoting or
// escaping, so cells are recovered with a straight split; a cell containing
// the delimiter cannot be represented and is a documented feed limitation.
//
// Header names drift between feed releases ("teamId" vs "TeamID" vs
// "team_id_column"), so columns are resolved heuristically: each field
// carries an ordered predicate list and binds to the first header the first
// matching predicate accepts.
package tabular

import (
	"fmt"
	"strings"
)

const DefaultDelimiter = ","

// Predicate decides whether a header cell satisfies a field. Matching is
// case-insensitive; implementations receive the header already lowercased
// and trimmed.
type Predicate interface {
	match(header string) bool
}

type exactPredicate struct{ name string }

func (p exactPredicate) match(header string) bool { return header == p.name }

type containsPredicate struct{ sub string }

func (p containsPredicate) match(header string) bool { return strings.Contains(header, p.sub) }

type containsExceptPredicate struct {
	sub    string
	except []string
}

func (p containsExceptPredicate) match(header string) bool {
	if !strings.Contains(header, p.sub) {
		return false
	}
	for _, item := range p.except {
		if strings.Contains(header, item) {
			return false
		}
	}
	return true
}

// Exact matches a header equal to name, ignoring case.
func Exact(name string) Predicate {
	return exactPredicate{name: normalizeHeader(name)}
}

// Contains matches a header containing sub, ignoring case.
func Contains(sub string) Predicate {
	return containsPredicate{sub: normalizeHeader(sub)}
}

// ContainsExcept matches a header containing sub but none of except.
func ContainsExcept(sub string, except ...string) Predicate {
	normalized := make([]string, 0, len(except))
	for _, item := range except {
		normalized = append(normalized, normalizeHeader(item))
	}
	return containsExceptPredicate{sub: normalizeHeader(sub), except: normalized}
}

// Field names one logical column and the ordered predicates that locate it.
// Predicates are tried in declaration order: the first predicate that
// matches any header wins, and binds the field to the leftmost header it
// accepts. A Required field that resolves no header fails the whole decode.
type Field struct {
	Name       string
	Required   bool
	Predicates []Predicate
}

// SchemaError reports a required field that matched no header.
type SchemaError struct {
	Field   string
	Headers []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no header resolves required field %q (headers: %s)", e.Field, strings.Join(e.Headers, ", "))
}

// Table is the decoded result: resolved column positions plus data records.
// Dropped counts data rows discarded for having an empty required value.
type Table struct {
	Records []Record
	Dropped int

	columnByField map[string]int
}

// Record is one data row. Lookups go through the field names given to
// Decode, not raw header names.
type Record struct {
	cells         []string
	columnByField map[string]int
}

// Value returns the trimmed cell bound to field, or "" when the field is
// unresolved or the row is short.
func (r Record) Value(field string) string {
	idx, ok := r.columnByField[field]
	if !ok || idx < 0 || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// Has reports whether field resolved to a column with a non-empty cell in
// this row.
func (r Record) Has(field string) bool {
	return r.Value(field) != ""
}

// Decoder splits rows on Delimiter. The zero value uses DefaultDelimiter.
type Decoder struct {
	Delimiter string
}

// Decode parses raw with the default comma delimiter.
func Decode(raw string, fields []Field) (*Table, error) {
	return Decoder{}.Decode(raw, fields)
}

// Decode resolves fields against the first line of raw and returns the
// remaining lines as records. Blank lines are skipped; rows with an empty
// required value are dropped and counted rather than failing the decode.
func (d Decoder) Decode(raw string, fields []Field) (*Table, error) {
	delimiter := d.Delimiter
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		return nil, fmt.Errorf("table is empty")
	}

	headers := splitRow(lines[0], delimiter)
	columnByField, err := resolveFields(headers, fields)
	if err != nil {
		return nil, err
	}

	table := &Table{
		Records:       make([]Record, 0, len(lines)-1),
		columnByField: columnByField,
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record := Record{
			cells:         splitRow(line, delimiter),
			columnByField: columnByField,
		}
		if missesRequiredValue(record, fields) {
			table.Dropped++
			continue
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

// Column reports the header index a field resolved to, with ok=false for
// unresolved optional fields.
func (t *Table) Column(field string) (int, bool) {
	idx, ok := t.columnByField[field]
	return idx, ok
}

func resolveFields(headers []string, fields []Field) (map[string]int, error) {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = normalizeHeader(header)
	}

	out := make(map[string]int, len(fields))
	for _, field := range fields {
		idx := resolveField(normalized, field)
		if idx < 0 {
			if field.Required {
				return nil, &SchemaError{Field: field.Name, Headers: headers}
			}
			continue
		}
		out[field.Name] = idx
	}

	return out, nil
}

func resolveField(headers []string, field Field) int {
	for _, predicate := range field.Predicates {
		for idx, header := range headers {
			if predicate.match(header) {
				return idx
			}
		}
	}
	return -1
}

func missesRequiredValue(record Record, fields []Field) bool {
	for _, field := range fields {
		if field.Required && !record.Has(field.Name) {
			return true
		}
	}
	return false
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.Trim(raw, "\n")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

func splitRow(line, delimiter string) []string {
	return strings.Split(strings.TrimRight(line, "\r"), delimiter)
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}
