package tui

import (
	"github.com/Veraticus/mandantenanalyse/internal/importer"
	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

// uploadedMsg reports the result of reading and parsing a file.
type uploadedMsg struct {
	err  error
	path string
}

// committedMsg reports the result of the commit.
type committedMsg struct {
	err     error
	outcome importer.Outcome
}

// sessionEventMsg forwards a session event into the update loop.
type sessionEventMsg struct {
	event wizard.Event
}
