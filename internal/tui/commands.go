package tui

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

// uploadFile reads path and hands it to the session parser.
func uploadFile(ctx context.Context, session *wizard.Session, read func(string) ([]byte, error), path string) tea.Cmd {
	return func() tea.Msg {
		data, err := read(path)
		if err != nil {
			return uploadedMsg{path: path, err: fmt.Errorf("failed to read file: %w", err)}
		}
		return uploadedMsg{path: path, err: session.Upload(ctx, data, filepath.Base(path))}
	}
}

// commit runs the session commit off the update loop.
func commit(ctx context.Context, session *wizard.Session) tea.Cmd {
	return func() tea.Msg {
		outcome, err := session.Commit(ctx)
		return committedMsg{outcome: outcome, err: err}
	}
}
