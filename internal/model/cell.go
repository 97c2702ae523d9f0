// Package model contains the data types shared by the ingestion pipeline.
package model

import (
	"strconv"
	"strings"
)

// CellKind describes what a spreadsheet cell holds.
type CellKind int

// Cell kinds.
const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

// Cell is a single value read from an uploaded table. It is either a string,
// a number or empty; no other coercion happens while parsing.
type Cell struct {
	Text   string
	Number float64
	Kind   CellKind
}

// StringCell wraps a text value. The text is kept verbatim.
func StringCell(s string) Cell {
	return Cell{Kind: CellString, Text: s}
}

// NumberCell wraps a numeric value.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// EmptyCell returns a cell with no value.
func EmptyCell() Cell {
	return Cell{}
}

// String returns the textual form of the cell. Numbers are formatted with
// the shortest representation that round-trips.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Trimmed returns the textual form without surrounding whitespace.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.String())
}

// IsBlank reports whether the cell is empty after trimming.
func (c Cell) IsBlank() bool {
	return c.Kind == CellEmpty || c.Trimmed() == ""
}
