// Package grid turns uploaded spreadsheet-like files into a model.RawTable.
// Delimited text, xlsx workbooks and OFX statements share one output
// contract: the first row is the header row, headers are kept verbatim and
// rows without any value are dropped.
package grid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// ErrUnsupportedFormat is returned when the input is not a known tabular format.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError reports that an upload could not be decoded.
type ParseError struct {
	Err      error
	Filename string
	Format   model.Format
}

func (e *ParseError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("failed to parse %s as %s: %v", e.Filename, e.Format, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Options configures a Parser.
type Options struct {
	// Sheet selects the worksheet of a workbook. Empty means the first sheet.
	Sheet string
	// Delimiter forces the field separator of delimited text. Zero sniffs it.
	Delimiter rune
}

// Parser decodes uploaded files.
type Parser struct {
	opts Options
}

// NewParser creates a parser.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse decodes data into a RawTable. An empty upload or a header without
// data rows yields an empty table rather than an error.
func (p *Parser) Parse(ctx context.Context, data []byte, filename string) (*model.RawTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		format, _ := formatFromExtension(filename)
		return &model.RawTable{Filename: filename, Format: format}, nil
	}

	format, err := DetectFormat(data, filename)
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}

	var cells [][]model.Cell
	switch format {
	case model.FormatCSV:
		cells, err = readDelimited(ctx, data, p.opts.Delimiter)
	case model.FormatXLSX:
		cells, err = readWorkbook(ctx, data, p.opts.Sheet)
	case model.FormatOFX:
		cells, err = readStatement(ctx, data)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, &ParseError{Filename: filename, Format: format, Err: err}
	}

	table := FromGrid(filename, format, cells)

	slog.Debug("Parsed upload",
		"file", filename,
		"format", format,
		"headers", len(table.Headers),
		"rows", len(table.Rows))

	return table, nil
}

// DetectFormat guesses the format of an upload, looking at the content first
// and the file extension second.
func DetectFormat(data []byte, filename string) (model.Format, error) {
	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return model.FormatXLSX, nil
	case bytes.HasPrefix(data, []byte("\xD0\xCF\x11\xE0")):
		return "", fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx", ErrUnsupportedFormat)
	case looksLikeOFX(data):
		return model.FormatOFX, nil
	}

	if format, ok := formatFromExtension(filename); ok {
		if format == model.FormatXLSX {
			return "", fmt.Errorf("%w: %s is not a valid workbook", ErrUnsupportedFormat, filepath.Base(filename))
		}
		return format, nil
	}

	if isText(data) {
		return model.FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

func formatFromExtension(filename string) (model.Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", ".tsv":
		return model.FormatCSV, true
	case ".xlsx", ".xlsm":
		return model.FormatXLSX, true
	case ".ofx", ".qfx":
		return model.FormatOFX, true
	default:
		return "", false
	}
}

func looksLikeOFX(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimLeft(head, " \t\r\n\xEF\xBB\xBF")
	return bytes.HasPrefix(head, []byte("OFXHEADER")) ||
		bytes.HasPrefix(head, []byte("<OFX>")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("OFXHEADER")))
}

// isText reports whether data looks like text in some 8-bit or UTF-8 encoding.
func isText(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	return utf8.Valid(sample) || bytes.IndexFunc(sample, func(r rune) bool { return r < 0x09 }) < 0
}

// FromGrid builds a RawTable from rows of cells. The first row is the
// header row. Empty header cells become __EMPTY, __EMPTY_1, ... and repeated
// headers get a numeric suffix so headers stay unique.
func FromGrid(filename string, format model.Format, cells [][]model.Cell) *model.RawTable {
	table := &model.RawTable{Filename: filename, Format: format}
	if len(cells) == 0 {
		return table
	}

	table.Headers = uniqueHeaders(cells[0])

	for _, record := range cells[1:] {
		row := make(model.Row, len(table.Headers))
		blank := true
		for i, header := range table.Headers {
			if i >= len(record) {
				break
			}
			cell := record[i]
			if cell.Kind == model.CellEmpty {
				continue
			}
			row[header] = cell
			if !cell.IsBlank() {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

func uniqueHeaders(cells []model.Cell) []string {
	// Trailing empty header cells carry no column.
	n := len(cells)
	for n > 0 && cells[n-1].IsBlank() {
		n--
	}

	headers := make([]string, 0, n)
	seen := make(map[string]bool, n)
	counts := make(map[string]int, n)

	for _, cell := range cells[:n] {
		base := cell.String()
		if strings.TrimSpace(base) == "" {
			base = "__EMPTY"
		}

		name := base
		for seen[name] {
			counts[base]++
			name = base + "_" + strconv.Itoa(counts[base])
		}

		seen[name] = true
		headers = append(headers, name)
	}

	return headers
}
