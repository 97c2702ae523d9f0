package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/mandantenanalyse/internal/importer"
	"github.com/Veraticus/mandantenanalyse/internal/mapping"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/validation"
)

// RenderTable renders rows under a header line. Columns are padded to the
// widest cell.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = style.Width(widths[i] + 2).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, render(headers, TableHeaderStyle))
	for _, row := range rows {
		lines = append(lines, render(row, TableCellStyle))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderMapping lists every target field with the header mapped to it.
func RenderMapping(m *mapping.FieldMapping) string {
	entries := m.Entries()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		name := e.Field
		if e.Required {
			name += " *"
		}
		header := SubtleStyle.Render("(not mapped)")
		switch {
		case e.Mapped():
			header = SuccessStyle.Render(e.Header)
		case e.Required:
			header = ErrorStyle.Render("missing")
		}
		rows = append(rows, []string{name, header})
	}

	out := RenderTable([]string{"Field", "Column"}, rows)
	if unmapped := m.UnmappedHeaders(); len(unmapped) > 0 {
		out += "\n" + SubtleStyle.Render("Ignored columns: "+strings.Join(unmapped, ", "))
	}
	return out
}

// RenderPreview shows the first limit rows of a table.
func RenderPreview(table *model.RawTable, limit int) string {
	if table.Empty() {
		return SubtleStyle.Render("The file contains no data rows.")
	}
	n := len(table.Rows)
	if limit > 0 && n > limit {
		n = limit
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(table.Headers))
		for j, h := range table.Headers {
			row[j] = truncate(table.Rows[i][h].String(), 24)
		}
		rows[i] = row
	}
	out := RenderTable(table.Headers, rows)
	if n < len(table.Rows) {
		out += "\n" + SubtleStyle.Render(fmt.Sprintf("… %d more rows", len(table.Rows)-n))
	}
	return out
}

// RenderReport lists up to limit findings followed by a per-field summary.
func RenderReport(report validation.Report, limit int) string {
	if report.Empty() {
		return FormatSuccess("All rows passed validation.")
	}

	var b strings.Builder
	b.WriteString(FormatWarning(fmt.Sprintf("%d problems in %d rows", report.Len(), len(report.Rows()))))
	b.WriteString("\n")

	shown := report.Findings
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([][]string, len(shown))
	for i, f := range shown {
		rows[i] = []string{fmt.Sprintf("%d", f.Row), f.Field, f.Message}
	}
	b.WriteString(RenderTable([]string{"Row", "Field", "Problem"}, rows))
	if len(shown) < report.Len() {
		b.WriteString("\n" + SubtleStyle.Render(fmt.Sprintf("… %d more", report.Len()-len(shown))))
	}

	summary := report.Summary()
	fields := make([]string, 0, len(summary))
	for field := range summary {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("%s: %d", field, summary[field])
	}
	b.WriteString("\n" + SubtleStyle.Render("By field: "+strings.Join(parts, ", ")))
	return b.String()
}

// RenderOutcome summarizes a finished commit.
func RenderOutcome(o importer.Outcome) string {
	lines := []string{
		fmt.Sprintf("Rows in file: %d", o.Total),
		SuccessStyle.Render(fmt.Sprintf("Imported:     %d", o.Imported)),
	}
	if o.Skipped > 0 {
		lines = append(lines, WarningStyle.Render(fmt.Sprintf("Skipped:      %d (rows %s)", o.Skipped, joinRows(o.SkippedRows))))
	}
	if o.Errors > 0 {
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("Not stored:   %d (rows %s)", o.Errors, joinRows(o.FailedRows))))
	}
	return RenderBox("Import finished", strings.Join(lines, "\n"))
}

func joinRows(rows []int) string {
	const maxShown = 10
	parts := make([]string, 0, maxShown+1)
	for i, r := range rows {
		if i == maxShown {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, fmt.Sprintf("%d", r))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
