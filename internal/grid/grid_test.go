package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

func assertRowsKeyedByHeaders(t *testing.T, table *model.RawTable) {
	t.Helper()
	for i, row := range table.Rows {
		for key := range row {
			assert.True(t, table.HasHeader(key), "row %d has key %q outside headers %v", i, key, table.Headers)
		}
	}
}

func TestParseDelimited(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantHeaders []string
		wantRows    []model.Row
	}{
		{
			name:        "semicolon export with blank row",
			data:        "Firma;Mitarbeiter;PLZ\nMüller GmbH;12;10115\n;;\nSchmidt AG;5;8000\n",
			wantHeaders: []string{"Firma", "Mitarbeiter", "PLZ"},
			wantRows: []model.Row{
				{"Firma": model.StringCell("Müller GmbH"), "Mitarbeiter": model.StringCell("12"), "PLZ": model.StringCell("10115")},
				{"Firma": model.StringCell("Schmidt AG"), "Mitarbeiter": model.StringCell("5"), "PLZ": model.StringCell("8000")},
			},
		},
		{
			name:        "comma with quoted delimiter",
			data:        "Firma,Mitarbeiter\n\"Müller, Meier GmbH\",5\n",
			wantHeaders: []string{"Firma", "Mitarbeiter"},
			wantRows: []model.Row{
				{"Firma": model.StringCell("Müller, Meier GmbH"), "Mitarbeiter": model.StringCell("5")},
			},
		},
		{
			name:        "tab separated",
			data:        "Datum\tBetrag\n15.03.2024\t1.234,56\n",
			wantHeaders: []string{"Datum", "Betrag"},
			wantRows: []model.Row{
				{"Datum": model.StringCell("15.03.2024"), "Betrag": model.StringCell("1.234,56")},
			},
		},
		{
			name:        "utf-8 byte order mark is stripped",
			data:        "\xEF\xBB\xBFFirma,Ort\nACME,Berlin\n",
			wantHeaders: []string{"Firma", "Ort"},
			wantRows: []model.Row{
				{"Firma": model.StringCell("ACME"), "Ort": model.StringCell("Berlin")},
			},
		},
		{
			name:        "windows-1252 fallback",
			data:        "Firma;Straße\nM\xfcller;Hauptstra\xdfe 1\n",
			wantHeaders: []string{"Firma", "Straße"},
			wantRows: []model.Row{
				{"Firma": model.StringCell("Müller"), "Straße": model.StringCell("Hauptstraße 1")},
			},
		},
		{
			name:        "cells beyond header width are dropped",
			data:        "A,B\n1,2,3\n",
			wantHeaders: []string{"A", "B"},
			wantRows: []model.Row{
				{"A": model.StringCell("1"), "B": model.StringCell("2")},
			},
		},
		{
			name:        "short rows omit missing cells",
			data:        "A,B,C\n1\n",
			wantHeaders: []string{"A", "B", "C"},
			wantRows: []model.Row{
				{"A": model.StringCell("1")},
			},
		},
		{
			name:        "whitespace is kept verbatim",
			data:        "Firma,PLZ\n  ACME  , 10115\n",
			wantHeaders: []string{"Firma", "PLZ"},
			wantRows: []model.Row{
				{"Firma": model.StringCell("  ACME  "), "PLZ": model.StringCell(" 10115")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewParser(Options{}).Parse(context.Background(), []byte(tt.data), "upload.csv")
			require.NoError(t, err)

			assert.Equal(t, model.FormatCSV, table.Format)
			assert.Equal(t, "upload.csv", table.Filename)
			assert.Equal(t, tt.wantHeaders, table.Headers)
			assert.Equal(t, tt.wantRows, table.Rows)
			assertRowsKeyedByHeaders(t, table)
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantHeaders []string
	}{
		{name: "zero bytes", data: ""},
		{name: "only whitespace", data: "\n\n  \n"},
		{name: "header only", data: "Firma;PLZ\n", wantHeaders: []string{"Firma", "PLZ"}},
		{name: "header and blank rows", data: "Firma;PLZ\n;\n ; \n", wantHeaders: []string{"Firma", "PLZ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewParser(Options{}).Parse(context.Background(), []byte(tt.data), "leer.csv")
			require.NoError(t, err)
			assert.True(t, table.Empty())
			assert.Equal(t, tt.wantHeaders, table.Headers)
		})
	}
}

func TestParseForcedDelimiter(t *testing.T) {
	data := "Firma|Ort;Land\nACME|Köln;DE\n"

	table, err := NewParser(Options{Delimiter: ';'}).Parse(context.Background(), []byte(data), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Firma|Ort", "Land"}, table.Headers)
}

func TestParseUnsupported(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{name: "binary blob", data: []byte{0x00, 0x01, 0x02, 0x00, 0xFF}, filename: "dump.bin"},
		{name: "legacy workbook", data: []byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1rest"), filename: "alt.xls"},
		{name: "xlsx extension without workbook", data: []byte("Firma;PLZ\n"), filename: "fake.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(Options{}).Parse(context.Background(), tt.data, tt.filename)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.filename, parseErr.Filename)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(Options{}).Parse(ctx, []byte("A,B\n1,2\n"), "a.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		filename string
		want     model.Format
	}{
		{name: "zip magic wins over extension", data: "PK\x03\x04....", filename: "export.csv", want: model.FormatXLSX},
		{name: "ofx header", data: "OFXHEADER:100\nDATA:OFXSGML\n", filename: "konto.txt", want: model.FormatOFX},
		{name: "ofx xml", data: "<?xml version=\"1.0\"?>\n<?OFX OFXHEADER=\"200\"?>", filename: "konto", want: model.FormatOFX},
		{name: "csv extension", data: "a,b", filename: "x.CSV", want: model.FormatCSV},
		{name: "qfx extension", data: "something", filename: "x.qfx", want: model.FormatOFX},
		{name: "unknown extension with text", data: "Firma;Ort\n", filename: "mandanten.dat", want: model.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat([]byte(tt.data), tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGridHeaders(t *testing.T) {
	s := model.StringCell
	e := model.EmptyCell()

	tests := []struct {
		name   string
		header []model.Cell
		want   []string
	}{
		{
			name:   "empty headers are numbered",
			header: []model.Cell{s("Name"), e, s("Ort"), s("  ")},
			want:   []string{"Name", "__EMPTY", "Ort"},
		},
		{
			name:   "empty headers in the middle",
			header: []model.Cell{e, s("A"), e, s("B")},
			want:   []string{"__EMPTY", "A", "__EMPTY_1", "B"},
		},
		{
			name:   "duplicate headers get a suffix",
			header: []model.Cell{s("Name"), s("Name"), s("Name")},
			want:   []string{"Name", "Name_1", "Name_2"},
		},
		{
			name:   "suffix skips existing header",
			header: []model.Cell{s("Name"), s("Name_1"), s("Name")},
			want:   []string{"Name", "Name_1", "Name_2"},
		},
		{
			name:   "numeric header",
			header: []model.Cell{model.NumberCell(2024), s("Betrag")},
			want:   []string{"2024", "Betrag"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := FromGrid("t", model.FormatSheets, [][]model.Cell{tt.header})
			assert.Equal(t, tt.want, table.Headers)
			assert.True(t, table.Empty())
		})
	}
}

func TestFromGridRows(t *testing.T) {
	cells := [][]model.Cell{
		{model.StringCell("Name"), model.StringCell("Name"), model.EmptyCell()},
		{model.StringCell("a"), model.StringCell("b"), model.StringCell("c")},
		{model.EmptyCell(), model.StringCell(" ")},
		{model.EmptyCell(), model.EmptyCell(), model.NumberCell(0)},
	}

	table := FromGrid("t", model.FormatSheets, cells)

	assert.Equal(t, []string{"Name", "Name_1"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, model.Row{"Name": model.StringCell("a"), "Name_1": model.StringCell("b")}, table.Rows[0])
	assertRowsKeyedByHeaders(t, table)
}

func TestFromGridNil(t *testing.T) {
	table := FromGrid("t", model.FormatCSV, nil)
	assert.True(t, table.Empty())
	assert.Empty(t, table.Headers)
}
