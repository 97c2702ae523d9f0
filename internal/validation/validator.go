// Package validation checks mapped rows against a target schema and collects
// every finding instead of stopping at the first one.
package validation

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/mandantenanalyse/internal/mapping"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/schema"
)

// MessageRequired is the finding message for a missing required value.
const MessageRequired = "is required"

// Finding is one problem with one field of one row.
type Finding struct {
	Field   string
	Message string
	Row     int // 1-based spreadsheet row, header included
}

func (f Finding) String() string {
	return fmt.Sprintf("row %d: %s %s", f.Row, f.Field, f.Message)
}

// Report is the ordered list of findings for a table: by row, then by field
// in schema order.
type Report struct {
	Findings []Finding
}

// Len returns the number of findings.
func (r Report) Len() int {
	return len(r.Findings)
}

// Empty reports whether there are no findings.
func (r Report) Empty() bool {
	return len(r.Findings) == 0
}

// Rows returns the distinct row numbers with at least one finding, ascending.
func (r Report) Rows() []int {
	var rows []int
	last := -1
	for _, f := range r.Findings {
		if f.Row != last {
			rows = append(rows, f.Row)
			last = f.Row
		}
	}
	return rows
}

// ForRow returns the findings of one row.
func (r Report) ForRow(row int) []Finding {
	i := sort.Search(len(r.Findings), func(i int) bool { return r.Findings[i].Row >= row })
	j := i
	for j < len(r.Findings) && r.Findings[j].Row == row {
		j++
	}
	return r.Findings[i:j]
}

// Summary counts findings per field.
func (r Report) Summary() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.Field]++
	}
	return counts
}

// Validate checks every row of table. A required field that is unmapped or
// blank yields "is required"; a mapped non-blank value failing the field
// rule yields the rule's message.
func Validate(table *model.RawTable, m *mapping.FieldMapping, s *schema.Schema) Report {
	var report Report
	fields := s.Fields()

	rows := mapping.Apply(table, m)
	for _, row := range rows {
		for _, f := range fields {
			if finding, ok := checkField(row, f, m); ok {
				report.Findings = append(report.Findings, finding)
			}
		}
	}

	slog.Debug("Validated table",
		"kind", s.Kind,
		"rows", len(rows),
		"findings", report.Len(),
		"rows_with_findings", len(report.Rows()))

	return report
}

// RowEligible reports whether every required field has a value on row. It
// ignores field rules.
func RowEligible(row model.MappedRow, s *schema.Schema) bool {
	for _, f := range s.RequiredFields() {
		if row.Value(f.Name).IsBlank() {
			return false
		}
	}
	return true
}

func checkField(row model.MappedRow, f schema.Field, m *mapping.FieldMapping) (Finding, bool) {
	_, mapped := m.Header(f.Name)
	value := row.Value(f.Name)

	if !mapped || value.IsBlank() {
		if f.Required {
			return Finding{Row: row.SourceRow, Field: f.Name, Message: MessageRequired}, true
		}
		return Finding{}, false
	}

	if f.Rule == nil {
		return Finding{}, false
	}
	if err := f.Rule(value); err != nil {
		return Finding{Row: row.SourceRow, Field: f.Name, Message: err.Error()}, true
	}
	return Finding{}, false
}
