package grid

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidateDelimiters are tried in order; ties keep the earlier one.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// readDelimited decodes delimited text. Input that is not valid UTF-8 is
// read as Windows-1252, which is what German spreadsheet exports use.
func readDelimited(ctx context.Context, data []byte, delimiter rune) ([][]model.Cell, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	if delimiter == 0 {
		delimiter = sniffDelimiter(text)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var cells [][]model.Cell
	for line := 0; ; line++ {
		if line%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read delimited text: %w", err)
		}

		row := make([]model.Cell, len(record))
		for i, field := range record {
			if field == "" {
				row[i] = model.EmptyCell()
				continue
			}
			row[i] = model.StringCell(field)
		}
		cells = append(cells, row)
	}

	return cells, nil
}

func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Windows-1252 text: %w", err)
	}
	return decoded, nil
}

// sniffDelimiter counts candidate delimiters outside quotes on the first
// non-empty line and returns the most frequent one.
func sniffDelimiter(text []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var line string
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			line = scanner.Text()
			break
		}
	}

	counts := make(map[rune]int, len(candidateDelimiters))
	quoted := false
	for _, r := range line {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}

	best := candidateDelimiters[0]
	for _, d := range candidateDelimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
