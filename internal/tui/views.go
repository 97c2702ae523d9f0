package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

var stepTitles = []struct {
	step  wizard.Step
	title string
}{
	{wizard.StepIntro, "Start"},
	{wizard.StepUpload, "File"},
	{wizard.StepPreview, "Columns"},
	{wizard.StepValidation, "Check"},
	{wizard.StepSuccess, "Done"},
}

// View renders the current step.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.session.Step() {
	case wizard.StepIntro:
		body = m.renderIntro()
	case wizard.StepUpload:
		body = m.renderUpload()
	case wizard.StepPreview:
		body = m.renderPreview()
	case wizard.StepValidation:
		body = m.renderValidation()
	case wizard.StepSuccess:
		body = m.renderSuccess()
	case wizard.StepCancelled:
		body = m.theme.StatusWarning.Render("Import cancelled. Nothing was stored.")
	}

	sections := []string{m.renderHeader(), body}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader shows the import kind and the step trail.
func (m Model) renderHeader() string {
	current := m.session.Step()
	parts := make([]string, len(stepTitles))
	for i, st := range stepTitles {
		label := fmt.Sprintf("%d %s", i+1, st.title)
		switch {
		case st.step == current:
			parts[i] = m.theme.Selected.Render(" " + label + " ")
		case st.step < current && current != wizard.StepCancelled:
			parts[i] = m.theme.StatusSuccess.Render(label)
		default:
			parts[i] = lipgloss.NewStyle().Foreground(m.theme.Muted).Render(label)
		}
	}

	title := m.theme.Title.Render(fmt.Sprintf("%s Import %s", cli.LedgerIcon, m.session.Schema().Kind))
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(parts, "  ›  "), "")
}

func (m Model) renderIntro() string {
	s := m.session.Schema()
	var b strings.Builder
	b.WriteString(m.theme.Normal.Render("Upload a CSV, Excel or OFX file. Its columns are matched to these fields:"))
	b.WriteString("\n\n")
	for _, f := range s.Fields() {
		name := f.Name
		if f.Required {
			name += " *"
		}
		fmt.Fprintf(&b, "  %-20s %s\n", m.theme.Bold.Render(name), f.Description)
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(m.theme.Muted).Render("* required. Press Enter to choose a file."))
	return m.theme.RoundedBox.Render(b.String())
}

func (m Model) renderUpload() string {
	lines := []string{
		m.theme.Subtitle.Render("Which file should be imported?"),
		m.pathInput.View(),
	}
	if table := m.session.Table(); table != nil {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(m.theme.Muted).Render(
			fmt.Sprintf("Leave empty to keep %s (%d rows).", table.Filename, len(table.Rows))))
	}
	if m.busy {
		lines = append(lines, "", m.spinner.View()+" Reading file …")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderPreview() string {
	table := m.session.Table()
	current := m.session.Mapping()

	var b strings.Builder
	b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf("%s %s · %d rows · %s", cli.FileIcon, table.Filename, len(table.Rows), table.Format)))
	b.WriteString("\n")
	b.WriteString(cli.RenderPreview(table, m.config.PreviewRows))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Bold.Render("Column mapping"))
	b.WriteString("\n")

	for i, e := range current.Entries() {
		name := e.Field
		if e.Required {
			name += " *"
		}
		column := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("(not mapped)")
		switch {
		case e.Mapped():
			column = m.theme.StatusSuccess.Render(e.Header)
		case e.Required:
			column = m.theme.StatusError.Render("missing")
		}
		line := fmt.Sprintf("%-22s %s", name, column)
		if i == m.cursor {
			line = m.theme.Highlighted.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if unmapped := current.UnmappedHeaders(); len(unmapped) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Ignored columns: " + strings.Join(unmapped, ", ")))
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString("\n")
		for i, h := range current.Headers() {
			fmt.Fprintf(&b, "  [%d] %s\n", i+1, h)
		}
		b.WriteString(m.headerInput.View())
	}
	return b.String()
}

func (m Model) renderValidation() string {
	report, _ := m.session.Report()
	lines := []string{
		cli.RenderReport(report, m.config.ReportRows),
		"",
		m.theme.Normal.Render("Policy: ") + m.theme.Bold.Render(policyLabel(m.session.Policy())),
	}
	if m.busy {
		percent := 0.0
		if m.total > 0 {
			percent = float64(m.done) / float64(m.total)
		}
		lines = append(lines, "", m.spinner.View()+" Importing …", m.progress.ViewAs(percent))
	} else {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press Enter to import, p to change the policy."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderSuccess() string {
	outcome, _ := m.session.Outcome()
	return lipgloss.JoinVertical(lipgloss.Left,
		cli.RenderOutcome(outcome),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press Enter to close."),
	)
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return "\n" + m.theme.StatusError.Render(cli.ErrorIcon+" "+m.status)
	}
	return "\n" + m.theme.StatusInfo.Render(m.status)
}

func (m Model) renderHelp() string {
	m.help.ShowAll = m.showHelp
	return "\n" + m.help.View(m.keymap)
}
