package tui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/mandantenanalyse/internal/importer"
	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

// Run starts the interactive import wizard and blocks until the user closes
// it. It returns the outcome of a successful import, or wizard.ErrCancelled.
func Run(ctx context.Context, cfg wizard.Config, opts ...Option) (importer.Outcome, error) {
	var program atomic.Pointer[tea.Program]

	// Only commit events are forwarded. They are emitted from the commit
	// command goroutine; the others are emitted inside Update, where Send
	// would block the event loop.
	next := cfg.Listener
	cfg.Listener = func(ev wizard.Event) {
		if next != nil {
			next(ev)
		}
		if ev.Kind != wizard.EventCommitStarted && ev.Kind != wizard.EventProgress {
			return
		}
		if p := program.Load(); p != nil {
			p.Send(sessionEventMsg{event: ev})
		}
	}

	session, err := wizard.New(cfg)
	if err != nil {
		return importer.Outcome{}, fmt.Errorf("failed to start import: %w", err)
	}

	model := New(ctx, session, opts...)
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if model.config.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, programOpts...)
	program.Store(p)

	if _, err := p.Run(); err != nil {
		_ = session.Cancel()
		if errors.Is(err, tea.ErrProgramKilled) {
			return importer.Outcome{}, wizard.ErrCancelled
		}
		return importer.Outcome{}, fmt.Errorf("wizard UI failed: %w", err)
	}

	if outcome, ok := session.Outcome(); ok {
		return outcome, nil
	}
	_ = session.Cancel()
	return importer.Outcome{}, wizard.ErrCancelled
}
