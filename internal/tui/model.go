package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/importer"
	"github.com/Veraticus/mandantenanalyse/internal/tui/themes"
	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

// Model is the bubbletea model of the import wizard. All wizard state lives
// in the session; the model only keeps what the screen needs.
type Model struct {
	ctx         context.Context
	session     *wizard.Session
	theme       themes.Theme
	status      string
	config      Config
	keymap      KeyMap
	help        help.Model
	pathInput   textinput.Model
	headerInput textinput.Model
	spinner     spinner.Model
	progress    progress.Model
	width       int
	height      int
	cursor      int
	done        int
	total       int
	statusErr   bool
	busy        bool
	editing     bool
	showHelp    bool
	quitting    bool
}

// New creates the wizard model for session.
func New(ctx context.Context, session *wizard.Session, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ReadFile == nil {
		cfg.ReadFile = os.ReadFile
	}

	path := textinput.New()
	path.Placeholder = "mandanten.xlsx"
	path.Prompt = "File: "
	path.CharLimit = 1024

	header := textinput.New()
	header.Placeholder = "column name or number"
	header.Prompt = "Column: "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(cfg.Theme.Primary)

	return Model{
		ctx:         ctx,
		session:     session,
		config:      cfg,
		theme:       cfg.Theme,
		keymap:      DefaultKeyMap(),
		help:        help.New(),
		pathInput:   path,
		headerInput: header,
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient()),
		width:       cfg.Width,
		height:      cfg.Height,
	}
}

// Session returns the session the model drives.
func (m Model) Session() *wizard.Session {
	return m.session
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(msg.Width-4, 60)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case uploadedMsg:
		return m.handleUploaded(msg)

	case committedMsg:
		return m.handleCommitted(msg)

	case sessionEventMsg:
		switch msg.event.Kind {
		case wizard.EventCommitStarted:
			m.done, m.total = 0, msg.event.Total
		case wizard.EventProgress:
			m.done, m.total = msg.event.Done, msg.event.Total
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.Quit) {
		return m.cancel()
	}
	if m.busy {
		return m, nil
	}

	switch m.session.Step() {
	case wizard.StepIntro:
		return m.handleIntroKey(msg)
	case wizard.StepUpload:
		return m.handleUploadKey(msg)
	case wizard.StepPreview:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handlePreviewKey(msg)
	case wizard.StepValidation:
		return m.handleValidationKey(msg)
	default:
		if key.Matches(msg, m.keymap.Next, m.keymap.Back) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleIntroKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Next):
		if err := m.session.Begin(); err != nil {
			return m.fail(err), nil
		}
		m.clearStatus()
		return m, m.pathInput.Focus()
	case key.Matches(msg, m.keymap.Back):
		return m.cancel()
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Next):
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			if m.session.Table() != nil {
				if err := m.session.KeepFile(); err != nil {
					return m.fail(err), nil
				}
				m.pathInput.Blur()
				m.clearStatus()
				return m, nil
			}
			m.setError("Enter the path of a CSV, Excel or OFX file.")
			return m, nil
		}
		m.busy = true
		m.setInfo("Reading " + path + " …")
		return m, tea.Batch(m.spinner.Tick, uploadFile(m.ctx, m.session, m.config.ReadFile, path))
	case key.Matches(msg, m.keymap.Back):
		if err := m.session.Back(); err != nil {
			return m.fail(err), nil
		}
		m.pathInput.Blur()
		m.clearStatus()
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) handleUploaded(msg uploadedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, wizard.ErrCancelled) {
			return m, nil
		}
		m.setError("Could not read " + msg.path + ": " + msg.err.Error())
		return m, nil
	}
	m.pathInput.Blur()
	m.cursor = 0
	if table := m.session.Table(); table != nil {
		m.setInfo(fmt.Sprintf("Loaded %d rows from %s.", len(table.Rows), table.Filename))
	}
	return m, nil
}

func (m Model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.session.Mapping().Entries()

	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Edit):
		if len(entries) == 0 {
			return m, nil
		}
		m.editing = true
		m.headerInput.SetValue(entries[m.cursor].Header)
		m.headerInput.CursorEnd()
		return m, m.headerInput.Focus()
	case key.Matches(msg, m.keymap.Clear):
		if len(entries) == 0 {
			return m, nil
		}
		if err := m.session.Clear(entries[m.cursor].Field); err != nil {
			return m.fail(err), nil
		}
		m.setInfo(entries[m.cursor].Field + " is no longer mapped.")
	case key.Matches(msg, m.keymap.TogglePolicy):
		return m.togglePolicy(), nil
	case key.Matches(msg, m.keymap.Next):
		if !m.session.CanValidate() {
			m.setError("Map the required fields first: " + strings.Join(m.session.Missing(), ", "))
			return m, nil
		}
		report, err := m.session.Validate()
		if err != nil {
			return m.fail(err), nil
		}
		if report.Empty() {
			m.setInfo("All rows passed validation.")
		} else {
			m.clearStatus()
		}
	case key.Matches(msg, m.keymap.Back):
		if err := m.session.Back(); err != nil {
			return m.fail(err), nil
		}
		m.clearStatus()
		m.pathInput.SetValue("")
		return m, m.pathInput.Focus()
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Back):
		m.editing = false
		m.headerInput.Blur()
		m.clearStatus()
		return m, nil
	case key.Matches(msg, m.keymap.Next):
		return m.applyEdit(), nil
	}

	var cmd tea.Cmd
	m.headerInput, cmd = m.headerInput.Update(msg)
	return m, cmd
}

// applyEdit assigns the typed column to the field under the cursor. An empty
// answer unmaps the field.
func (m Model) applyEdit() Model {
	current := m.session.Mapping()
	entries := current.Entries()
	if m.cursor >= len(entries) {
		m.editing = false
		return m
	}
	field := entries[m.cursor].Field
	answer := strings.TrimSpace(m.headerInput.Value())

	if answer == "" {
		if err := m.session.Clear(field); err != nil {
			return m.fail(err)
		}
		m.editing = false
		m.headerInput.Blur()
		m.setInfo(field + " is no longer mapped.")
		return m
	}

	headers := current.Headers()
	header, ok := cli.ResolveHeader(answer, headers)
	if !ok {
		text := fmt.Sprintf("No column %q.", answer)
		if hint := cli.DidYouMean(answer, headers); hint != "" {
			text += " " + hint
		}
		m.setError(text)
		return m
	}

	displaced, err := m.session.Assign(field, header)
	if err != nil {
		return m.fail(err)
	}
	m.editing = false
	m.headerInput.Blur()
	if displaced != "" {
		m.setInfo(fmt.Sprintf("%s now reads %q; %s is no longer mapped.", field, header, displaced))
	} else {
		m.setInfo(fmt.Sprintf("%s now reads %q.", field, header))
	}
	return m
}

func (m Model) handleValidationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.TogglePolicy):
		return m.togglePolicy(), nil
	case key.Matches(msg, m.keymap.Next):
		m.busy = true
		m.done, m.total = 0, 0
		m.setInfo("Importing …")
		return m, tea.Batch(m.spinner.Tick, commit(m.ctx, m.session))
	case key.Matches(msg, m.keymap.Back):
		if err := m.session.Back(); err != nil {
			return m.fail(err), nil
		}
		m.clearStatus()
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) handleCommitted(msg committedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	var blocked *importer.ValidationBlockedError
	switch {
	case msg.err == nil:
		m.clearStatus()
	case errors.Is(msg.err, wizard.ErrCancelled):
		m.quitting = true
		return m, tea.Quit
	case errors.As(msg.err, &blocked):
		m.setError(blocked.Error() + ". Fix the file or press p to skip those rows.")
	default:
		m.setError("Import failed: " + msg.err.Error())
	}
	return m, nil
}

func (m Model) togglePolicy() Model {
	next := importer.AbortOnAnyError
	if m.session.Policy() == importer.AbortOnAnyError {
		next = importer.SkipInvalidRows
	}
	if err := m.session.SetPolicy(next); err != nil {
		return m.fail(err)
	}
	m.setInfo("Policy: " + policyLabel(next))
	return m
}

// cancel ends the session and quits. A running commit is abandoned.
func (m Model) cancel() (tea.Model, tea.Cmd) {
	if err := m.session.Cancel(); err != nil && !errors.Is(err, wizard.ErrFinished) {
		return m.fail(err), nil
	}
	m.busy = false
	m.quitting = true
	return m, tea.Quit
}

func (m Model) fail(err error) Model {
	m.setError(err.Error())
	return m
}

func (m *Model) setError(text string) {
	m.status = text
	m.statusErr = true
}

func (m *Model) setInfo(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

func policyLabel(p importer.Policy) string {
	if p == importer.AbortOnAnyError {
		return "abort if any row is incomplete"
	}
	return "skip incomplete rows"
}
