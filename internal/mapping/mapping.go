// Package mapping proposes and holds the assignment of source headers to
// target schema fields.
package mapping

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/schema"
)

var (
	// ErrFrozen is returned when a frozen mapping is edited.
	ErrFrozen = errors.New("field mapping is frozen")
	// ErrUnknownField is returned for a field that is not part of the schema.
	ErrUnknownField = schema.ErrUnknownField
	// ErrUnknownHeader is returned for a header the table does not have.
	ErrUnknownHeader = errors.New("unknown source header")
)

// Entry is one line of a mapping as shown to the user.
type Entry struct {
	Field    string
	Header   string // empty when unmapped
	Required bool
}

// Mapped reports whether the entry has a source header.
func (e Entry) Mapped() bool {
	return e.Header != ""
}

// FieldMapping assigns at most one source header to each target field and
// never assigns one header to two fields.
type FieldMapping struct {
	schema   *schema.Schema
	assigned map[string]string // field -> header
	known    map[string]bool
	headers  []string
	frozen   bool
}

// NewFieldMapping returns a mapping with every field unmapped.
func NewFieldMapping(headers []string, s *schema.Schema) *FieldMapping {
	m := &FieldMapping{
		schema:   s,
		assigned: make(map[string]string),
		known:    make(map[string]bool, len(headers)),
		headers:  append([]string(nil), headers...),
	}
	for _, h := range headers {
		m.known[h] = true
	}
	return m
}

// Propose guesses a mapping from the headers. Headers are scanned once in
// order; each header goes to the first field, in schema order, whose keyword
// group matches it. When that field already has a header the later header
// stays unmapped.
func Propose(headers []string, s *schema.Schema) *FieldMapping {
	m := NewFieldMapping(headers, s)
	fields := s.Fields()

	for _, header := range headers {
		for _, f := range fields {
			if !f.Keywords.Match(header) {
				continue
			}
			if _, taken := m.assigned[f.Name]; !taken {
				m.assigned[f.Name] = header
			}
			break
		}
	}

	slog.Debug("Proposed field mapping",
		"kind", s.Kind,
		"headers", len(headers),
		"mapped", len(m.assigned),
		"missing", len(m.Missing()))

	return m
}

// Schema returns the target schema.
func (m *FieldMapping) Schema() *schema.Schema {
	return m.schema
}

// Headers returns the source headers the mapping was built for.
func (m *FieldMapping) Headers() []string {
	return append([]string(nil), m.headers...)
}

// Header returns the source header mapped to field.
func (m *FieldMapping) Header(field string) (string, bool) {
	h, ok := m.assigned[field]
	return h, ok
}

// FieldFor returns the field a header is mapped to.
func (m *FieldMapping) FieldFor(header string) (string, bool) {
	for field, h := range m.assigned {
		if h == header {
			return field, true
		}
	}
	return "", false
}

// Assign maps field to header. If another field held the header it is
// cleared and its name returned.
func (m *FieldMapping) Assign(field, header string) (string, error) {
	if m.frozen {
		return "", ErrFrozen
	}
	if _, ok := m.schema.Field(field); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if !m.known[header] {
		return "", fmt.Errorf("%w: %q", ErrUnknownHeader, header)
	}

	displaced := ""
	if other, ok := m.FieldFor(header); ok && other != field {
		delete(m.assigned, other)
		displaced = other
	}
	m.assigned[field] = header

	slog.Debug("Assigned header", "field", field, "header", header, "displaced", displaced)
	return displaced, nil
}

// Clear marks field as unmapped.
func (m *FieldMapping) Clear(field string) error {
	if m.frozen {
		return ErrFrozen
	}
	if _, ok := m.schema.Field(field); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(m.assigned, field)
	return nil
}

// Missing returns the required fields without a header, in schema order.
func (m *FieldMapping) Missing() []string {
	var missing []string
	for _, f := range m.schema.RequiredFields() {
		if _, ok := m.assigned[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Complete reports whether every required field has a header.
func (m *FieldMapping) Complete() bool {
	return len(m.Missing()) == 0
}

// UnmappedHeaders returns the source headers no field uses, in column order.
func (m *FieldMapping) UnmappedHeaders() []string {
	used := make(map[string]bool, len(m.assigned))
	for _, h := range m.assigned {
		used[h] = true
	}
	var out []string
	for _, h := range m.headers {
		if !used[h] {
			out = append(out, h)
		}
	}
	return out
}

// Entries lists every field in schema order.
func (m *FieldMapping) Entries() []Entry {
	fields := m.schema.Fields()
	entries := make([]Entry, len(fields))
	for i, f := range fields {
		entries[i] = Entry{Field: f.Name, Header: m.assigned[f.Name], Required: f.Required}
	}
	return entries
}

// Freeze rejects further edits.
func (m *FieldMapping) Freeze() {
	m.frozen = true
}

// Thaw allows edits again.
func (m *FieldMapping) Thaw() {
	m.frozen = false
}

// Frozen reports whether edits are rejected.
func (m *FieldMapping) Frozen() bool {
	return m.frozen
}

// Clone returns an unfrozen copy.
func (m *FieldMapping) Clone() *FieldMapping {
	c := NewFieldMapping(m.headers, m.schema)
	for f, h := range m.assigned {
		c.assigned[f] = h
	}
	return c
}

// SourceRow converts a position in RawTable.Rows into the row number a user
// sees in the spreadsheet: 1-based and counting the header row.
func SourceRow(position int) int {
	return position + 2
}

// Apply re-keys every row of table from source headers to field names.
// Unmapped fields and missing cells are absent from the result.
func Apply(table *model.RawTable, m *FieldMapping) []model.MappedRow {
	if table.Empty() {
		return nil
	}

	rows := make([]model.MappedRow, len(table.Rows))
	for i, raw := range table.Rows {
		values := make(map[string]model.Cell, len(m.assigned))
		for field, header := range m.assigned {
			if c, ok := raw[header]; ok {
				values[field] = c
			}
		}
		rows[i] = model.MappedRow{Values: values, SourceRow: SourceRow(i)}
	}
	return rows
}
