// Package wizard sequences one import: upload, mapping, validation and
// commit. A Session owns the parsed table, the field mapping, the validation
// report and the outcome for its lifetime.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/importer"
	"github.com/Veraticus/mandantenanalyse/internal/mapping"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/schema"
	"github.com/Veraticus/mandantenanalyse/internal/validation"
)

// Step is a wizard state.
type Step int

// Wizard steps.
const (
	StepIntro Step = iota
	StepUpload
	StepPreview
	StepValidation
	StepSuccess
	StepCancelled
)

func (s Step) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepUpload:
		return "upload"
	case StepPreview:
		return "preview"
	case StepValidation:
		return "validation"
	case StepSuccess:
		return "success"
	case StepCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Terminal reports whether no transition leaves s.
func (s Step) Terminal() bool {
	return s == StepSuccess || s == StepCancelled
}

var (
	// ErrCancelled is returned by operations whose result arrived after the
	// session was cancelled, or after the user left the step that started
	// them. The result is discarded.
	ErrCancelled = errors.New("import session cancelled")
	// ErrFinished is returned for any transition on a finished session.
	ErrFinished = errors.New("import session finished")
	// ErrMappingIncomplete is returned by Validate while required fields are unmapped.
	ErrMappingIncomplete = errors.New("required fields are not mapped")
	// ErrCommitInProgress is returned while a commit is running.
	ErrCommitInProgress = errors.New("commit in progress")
)

// TransitionError reports an operation that is not allowed in the current step.
type TransitionError struct {
	Op   string
	From Step
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s in step %s", e.Op, e.From)
}

// Parser decodes an uploaded file.
type Parser interface {
	Parse(ctx context.Context, data []byte, filename string) (*model.RawTable, error)
}

// Journal records finished imports.
type Journal interface {
	SaveImportRun(ctx context.Context, run *model.ImportRun) error
}

// Config wires a session to its collaborators.
type Config struct {
	Schema   *schema.Schema
	Parser   Parser
	Sink     importer.Sink
	Journal  Journal // optional
	Listener Listener
	ActorID  string
	Policy   importer.Policy
}

// Session is one run of the import wizard. It is safe to call Cancel from
// another goroutine while Upload or Commit are running.
type Session struct {
	cfg          Config
	startedAt    time.Time
	table        *model.RawTable
	mapping      *mapping.FieldMapping
	report       *validation.Report
	outcome      *importer.Outcome
	cancelCommit context.CancelFunc
	id           string
	generation   uint64
	mu           sync.Mutex
	step         Step
	policy       importer.Policy
	committing   bool
}

// New creates a session in the intro step.
func New(cfg Config) (*Session, error) {
	if cfg.Schema == nil {
		return nil, fmt.Errorf("%w: wizard needs a schema", common.ErrMissingConfig)
	}
	if cfg.Parser == nil {
		return nil, fmt.Errorf("%w: wizard needs a parser", common.ErrMissingConfig)
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("%w: wizard needs a storage sink", common.ErrMissingConfig)
	}
	return &Session{
		cfg:       cfg,
		id:        uuid.New().String(),
		step:      StepIntro,
		policy:    cfg.Policy,
		startedAt: time.Now(),
	}, nil
}

// Restart returns a fresh session with the same configuration. Nothing is
// carried over from s.
func (s *Session) Restart() *Session {
	fresh, _ := New(s.cfg)
	return fresh
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Schema returns the target schema.
func (s *Session) Schema() *schema.Schema {
	return s.cfg.Schema
}

// Table returns the parsed table, or nil before a successful upload.
func (s *Session) Table() *model.RawTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// Mapping returns a copy of the current field mapping.
func (s *Session) Mapping() *mapping.FieldMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Clone()
}

// Report returns the validation report once the session reached validation.
func (s *Session) Report() (validation.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return validation.Report{}, false
	}
	return *s.report, true
}

// Outcome returns the commit outcome of a successful session.
func (s *Session) Outcome() (importer.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return importer.Outcome{}, false
	}
	return *s.outcome, true
}

// Policy returns the commit policy.
func (s *Session) Policy() importer.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// Begin moves from intro to upload.
func (s *Session) Begin() error {
	s.mu.Lock()
	if err := s.guard("begin", StepIntro); err != nil {
		s.mu.Unlock()
		return err
	}
	ev := s.moveTo(StepUpload)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// Upload parses a file and moves to preview with a freshly proposed mapping.
// On a parse error the session stays in upload.
func (s *Session) Upload(ctx context.Context, data []byte, filename string) error {
	s.mu.Lock()
	if err := s.guard("upload", StepUpload); err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.generation
	s.mu.Unlock()

	table, err := s.cfg.Parser.Parse(ctx, data, filename)

	s.mu.Lock()
	if s.generation != gen || s.step != StepUpload {
		s.mu.Unlock()
		slog.Info("Discarding abandoned upload", "session", s.id, "file", filename)
		return ErrCancelled
	}
	if err != nil {
		s.mu.Unlock()
		slog.Warn("Upload rejected", "session", s.id, "file", filename, "error", err)
		s.emit(Event{Kind: EventParseFailed, SessionID: s.id, Step: StepUpload, Err: err})
		return err
	}
	ev := s.loadTable(table)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// UseTable loads an already parsed table, for sources that are not files.
func (s *Session) UseTable(table *model.RawTable) error {
	if table == nil {
		return errors.New("nil table")
	}
	s.mu.Lock()
	if err := s.guard("load table", StepUpload); err != nil {
		s.mu.Unlock()
		return err
	}
	ev := s.loadTable(table)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// KeepFile returns to preview with the table and mapping already loaded,
// without parsing again.
func (s *Session) KeepFile() error {
	s.mu.Lock()
	if err := s.guard("keep file", StepUpload); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.table == nil {
		s.mu.Unlock()
		return &TransitionError{Op: "keep file without an upload", From: StepUpload}
	}
	ev := s.moveTo(StepPreview)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

func (s *Session) loadTable(table *model.RawTable) Event {
	s.table = table
	s.mapping = mapping.Propose(table.Headers, s.cfg.Schema)
	s.report = nil

	slog.Info("Upload accepted",
		"session", s.id,
		"file", table.Filename,
		"format", table.Format,
		"rows", len(table.Rows),
		"missing_fields", len(s.mapping.Missing()))

	return s.moveTo(StepPreview)
}

// Assign maps a field to a source header while in preview. It returns the
// field that lost the header, if any.
func (s *Session) Assign(field, header string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("edit mapping", StepPreview); err != nil {
		return "", err
	}
	return s.mapping.Assign(field, header)
}

// Clear unmaps a field while in preview.
func (s *Session) Clear(field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("edit mapping", StepPreview); err != nil {
		return err
	}
	return s.mapping.Clear(field)
}

// Missing returns the required fields that still need a header.
func (s *Session) Missing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Missing()
}

// CanValidate reports whether Validate would be allowed.
func (s *Session) CanValidate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step == StepPreview && s.mapping != nil && s.mapping.Complete()
}

// Validate freezes the mapping, validates every row and moves to validation.
func (s *Session) Validate() (validation.Report, error) {
	s.mu.Lock()
	if err := s.guard("validate", StepPreview); err != nil {
		s.mu.Unlock()
		return validation.Report{}, err
	}
	if missing := s.mapping.Missing(); len(missing) > 0 {
		s.mu.Unlock()
		return validation.Report{}, fmt.Errorf("%w: %v", ErrMappingIncomplete, missing)
	}

	s.mapping.Freeze()
	report := validation.Validate(s.table, s.mapping, s.cfg.Schema)
	s.report = &report
	step := s.moveTo(StepValidation)
	s.mu.Unlock()

	s.emit(step)
	s.emit(Event{Kind: EventValidated, SessionID: s.id, Step: StepValidation, Findings: report.Len()})
	return report, nil
}

// SetPolicy changes the commit policy before the commit starts.
func (s *Session) SetPolicy(p importer.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("change policy", StepUpload, StepPreview, StepValidation); err != nil {
		return err
	}
	s.policy = p
	return nil
}

// Commit stores the eligible rows and moves to success. A blocked or failed
// commit keeps the session in validation. If the session is cancelled while
// the commit runs, the commit context is cancelled and the outcome dropped.
func (s *Session) Commit(ctx context.Context) (importer.Outcome, error) {
	s.mu.Lock()
	if err := s.guard("commit", StepValidation); err != nil {
		s.mu.Unlock()
		return importer.Outcome{}, err
	}

	gen := s.generation
	commitCtx, cancel := context.WithCancel(ctx)
	s.cancelCommit = cancel
	s.committing = true
	req := importer.Request{
		Table:   s.table,
		Mapping: s.mapping,
		Schema:  s.cfg.Schema,
		ActorID: s.cfg.ActorID,
		Policy:  s.policy,
	}
	total := len(s.table.Rows)
	s.mu.Unlock()

	s.emit(Event{Kind: EventCommitStarted, SessionID: s.id, Step: StepValidation, Total: total})

	commitCtx = common.WithProgress(commitCtx, func(done, total int) {
		s.mu.Lock()
		stale := s.generation != gen
		s.mu.Unlock()
		if !stale {
			s.emit(Event{Kind: EventProgress, SessionID: s.id, Step: StepValidation, Done: done, Total: total})
		}
	})

	outcome, err := importer.Commit(commitCtx, req, s.cfg.Sink)
	cancel()

	s.mu.Lock()
	s.committing = false
	s.cancelCommit = nil
	if s.generation != gen {
		s.mu.Unlock()
		slog.Info("Discarding commit result of cancelled session", "session", s.id, "error", err)
		return importer.Outcome{}, ErrCancelled
	}
	if err != nil {
		s.mu.Unlock()
		s.emit(Event{Kind: EventCommitFailed, SessionID: s.id, Step: StepValidation, Err: err})
		return importer.Outcome{}, err
	}
	s.outcome = &outcome
	filename := s.table.Filename
	ev := s.moveTo(StepSuccess)
	s.mu.Unlock()

	s.record(ctx, filename, req.Policy, outcome)
	s.emit(ev)
	s.emit(Event{Kind: EventCommitSucceeded, SessionID: s.id, Step: StepSuccess, Outcome: outcome})
	return outcome, nil
}

func (s *Session) record(ctx context.Context, filename string, policy importer.Policy, outcome importer.Outcome) {
	if s.cfg.Journal == nil {
		return
	}
	run := &model.ImportRun{
		SessionID:  s.id,
		OwnerID:    s.cfg.ActorID,
		Kind:       string(s.cfg.Schema.Kind),
		Filename:   filename,
		Policy:     policy.String(),
		Total:      outcome.Total,
		Imported:   outcome.Imported,
		Skipped:    outcome.Skipped,
		Errors:     outcome.Errors,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
	}
	if err := s.cfg.Journal.SaveImportRun(ctx, run); err != nil {
		common.LogError(err, "Failed to record import run", common.Fields{
			"session": s.id,
			"file":    filename,
		})
	}
}

// Back goes one step backwards: validation to preview (mapping editable
// again), preview to upload, upload to intro. The table is kept.
func (s *Session) Back() error {
	s.mu.Lock()
	if err := s.guard("go back", StepUpload, StepPreview, StepValidation); err != nil {
		s.mu.Unlock()
		return err
	}

	var ev Event
	switch s.step {
	case StepValidation:
		s.mapping.Thaw()
		s.report = nil
		ev = s.moveTo(StepPreview)
	case StepPreview:
		ev = s.moveTo(StepUpload)
	default:
		// A file still being parsed is abandoned.
		s.generation++
		ev = s.moveTo(StepIntro)
	}
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// Cancel ends the session from any non-terminal step and drops its data. A
// running commit has its context cancelled and its outcome discarded.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.step.Terminal() {
		s.mu.Unlock()
		return ErrFinished
	}

	s.generation++
	if s.cancelCommit != nil {
		s.cancelCommit()
	}
	s.table = nil
	s.mapping = nil
	s.report = nil
	ev := s.moveTo(StepCancelled)
	s.mu.Unlock()

	slog.Info("Import cancelled", "session", s.id)
	s.emit(ev)
	s.emit(Event{Kind: EventCancelled, SessionID: s.id, Step: StepCancelled})
	return nil
}

// guard checks the current step. Callers hold s.mu.
func (s *Session) guard(op string, allowed ...Step) error {
	if s.step.Terminal() {
		return ErrFinished
	}
	if s.committing {
		return ErrCommitInProgress
	}
	for _, step := range allowed {
		if s.step == step {
			return nil
		}
	}
	return &TransitionError{Op: op, From: s.step}
}

// moveTo changes the step. Callers hold s.mu and emit the returned event
// after unlocking.
func (s *Session) moveTo(step Step) Event {
	slog.Debug("Wizard step", "session", s.id, "from", s.step, "to", step)
	s.step = step
	return Event{Kind: EventStepChanged, SessionID: s.id, Step: step}
}

func (s *Session) emit(ev Event) {
	if s.cfg.Listener != nil {
		s.cfg.Listener(ev)
	}
}
