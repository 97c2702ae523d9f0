package model

// Format identifies the encoding a RawTable was decoded from.
type Format string

// Supported source formats.
const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatOFX    Format = "ofx"
	FormatSheets Format = "sheets"
)

// Row maps a source header to the cell found under it.
type Row map[string]Cell

// RawTable is the normalized result of parsing one uploaded file. Headers keep
// column order and are unique; every key of every row is one of the headers.
type RawTable struct {
	Filename string
	Format   Format
	Headers  []string
	Rows     []Row
}

// Empty reports whether the table has no data rows.
func (t *RawTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// HasHeader reports whether header is one of the table's columns.
func (t *RawTable) HasHeader(header string) bool {
	if t == nil {
		return false
	}
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// MappedRow is a raw row re-keyed from source headers to target field names.
// Unmapped fields are absent.
type MappedRow struct {
	Values    map[string]Cell
	SourceRow int // 1-based row number as shown to the user, header included
}

// Value returns the cell mapped to field, or an empty cell.
func (r MappedRow) Value(field string) Cell {
	if c, ok := r.Values[field]; ok {
		return c
	}
	return EmptyCell()
}
