package wizard

import (
	"github.com/Veraticus/mandantenanalyse/internal/importer"
)

// EventKind identifies what happened in a session.
type EventKind int

// Event kinds.
const (
	EventStepChanged EventKind = iota
	EventParseFailed
	EventValidated
	EventCommitStarted
	EventProgress
	EventCommitSucceeded
	EventCommitFailed
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventStepChanged:
		return "step_changed"
	case EventParseFailed:
		return "parse_failed"
	case EventValidated:
		return "validated"
	case EventCommitStarted:
		return "commit_started"
	case EventProgress:
		return "progress"
	case EventCommitSucceeded:
		return "commit_succeeded"
	case EventCommitFailed:
		return "commit_failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is delivered to the session listener. Only the fields relevant to
// Kind are set.
type Event struct {
	Err       error
	SessionID string
	Outcome   importer.Outcome
	Kind      EventKind
	Step      Step
	Findings  int
	Done      int
	Total     int
}

// Listener receives session events. It is called without the session lock
// held, so it may call back into the session.
type Listener func(Event)
