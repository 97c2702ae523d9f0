// Package cli provides the terminal output of the import commands: styles,
// tables, prompts and progress.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	ledgerBlue = lipgloss.Color("#4A7BD0")
	teal       = lipgloss.Color("#4ECDC4")
	amber      = lipgloss.Color("#FFB347")
	red        = lipgloss.Color("#FF6B6B")
	gray       = lipgloss.Color("#666666")
	border     = lipgloss.Color("#333")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ledgerBlue).MarginBottom(1)
	infoStyle   = lipgloss.NewStyle().Foreground(ledgerBlue)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(ledgerBlue)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2)

	// SuccessStyle marks imported rows and finished operations.
	SuccessStyle = lipgloss.NewStyle().Foreground(teal)
	// WarningStyle marks skipped rows and cancelled operations.
	WarningStyle = lipgloss.NewStyle().Foreground(amber)
	// ErrorStyle marks rejected rows and failures.
	ErrorStyle = lipgloss.NewStyle().Foreground(red)
	// SubtleStyle is for hints and empty-list messages.
	SubtleStyle = lipgloss.NewStyle().Foreground(gray)
	// BoldStyle emphasizes questions and field names.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// TableHeaderStyle underlines the header row of RenderTable.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(border)
	// TableCellStyle pads table cells.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
	InfoIcon    = "›"
	LedgerIcon  = "📒"
	FileIcon    = "📄"
)

func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return infoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle prefixes title with the ledger icon.
func FormatTitle(title string) string {
	return titleStyle.Render(LedgerIcon + " " + title)
}

// FormatPrompt renders the label in front of an answer.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox draws content under title inside a rounded border.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.UnsetMargins().Render(title),
		content,
	))
}
