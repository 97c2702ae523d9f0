package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/config"
	"github.com/Veraticus/mandantenanalyse/internal/importer"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/schema"
	"github.com/Veraticus/mandantenanalyse/internal/sheets"
	"github.com/Veraticus/mandantenanalyse/internal/storage"
	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

const reportLimit = 20

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import clients or transactions from a spreadsheet",
		Long: `Import a CSV, Excel or OFX file, or a Google Sheets range, into the database.

Columns are matched to the target fields by their headers. Required fields
that could not be matched are asked for interactively, or can be given with
--map. Every row is checked before the import; rows missing a required value
are skipped (or block the import with --policy abort).`,
		Example: `  # Import client master data
  mandant import mandanten.xlsx --kind clients --owner berater-1

  # Import a bank export, mapping one column by hand
  mandant import umsaetze.csv --kind transactions --map "booking text=Buchungsinfo"

  # Import from Google Sheets without questions
  mandant import --kind clients --spreadsheet 1AbC... --range "Mandanten!A1:H" --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("kind", "k", "clients", "what the file contains (clients, transactions)")
	cmd.Flags().String("policy", "skip", "what to do with incomplete rows (skip, abort)")
	cmd.Flags().StringArray("map", nil, `map a field to a column, as "field=column" (repeatable)`)
	cmd.Flags().String("sheet", "", "worksheet of an Excel file (default: first sheet)")
	cmd.Flags().String("delimiter", "", "field separator of a CSV file (default: detected)")
	cmd.Flags().String("keywords", "", "YAML file with extra header keywords")
	cmd.Flags().String("spreadsheet", "", "read from this Google Sheets spreadsheet id instead of a file")
	cmd.Flags().String("range", "", "Google Sheets range in A1 notation (default: first sheet)")
	cmd.Flags().BoolP("yes", "y", false, "do not ask questions")
	cmd.Flags().Bool("checkpoint", false, "create a database checkpoint before writing")

	_ = viper.BindPFlag("import.kind", cmd.Flags().Lookup("kind"))
	_ = viper.BindPFlag("import.policy", cmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("import.sheet", cmd.Flags().Lookup("sheet"))
	_ = viper.BindPFlag("import.delimiter", cmd.Flags().Lookup("delimiter"))
	_ = viper.BindPFlag("import.keywords_file", cmd.Flags().Lookup("keywords"))
	_ = viper.BindPFlag("import.checkpoint", cmd.Flags().Lookup("checkpoint"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	spreadsheetID, _ := cmd.Flags().GetString("spreadsheet")
	readRange, _ := cmd.Flags().GetString("range")
	mapFlags, _ := cmd.Flags().GetStringArray("map")
	yes, _ := cmd.Flags().GetBool("yes")

	if (len(args) == 0) == (spreadsheetID == "") {
		return common.NewUserError("Give either a file or --spreadsheet", common.ErrMissingConfig)
	}

	overrides, err := parseMappingFlags(mapFlags)
	if err != nil {
		return err
	}
	s, err := loadSchema(viper.GetString("import.kind"))
	if err != nil {
		return err
	}
	owner, err := currentOwner()
	if err != nil {
		return err
	}
	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	parser, err := newParser()
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	var source tableSource
	if spreadsheetID != "" {
		sheetsConfig, cfgErr := config.LoadSheetsConfig()
		if cfgErr != nil {
			return common.NewUserError("Google Sheets is not configured", cfgErr)
		}
		reader, readerErr := sheets.NewReader(ctx, *sheetsConfig)
		if readerErr != nil {
			return fmt.Errorf("failed to connect to Google Sheets: %w", readerErr)
		}
		source = sheetSource(reader, spreadsheetID, readRange)
	} else {
		source = fileSource(args[0])
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	job := &importJob{
		schema:     s,
		parser:     parser,
		store:      store,
		out:        cmd.OutOrStdout(),
		owner:      owner,
		policy:     policy,
		overrides:  overrides,
		checkpoint: viper.GetBool("import.checkpoint"),
	}
	if !yes {
		job.prompter = cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	_, err = job.run(ctx, source)
	if errors.Is(err, wizard.ErrCancelled) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Import cancelled. Nothing was stored."))
		return nil
	}
	return err
}

// tableSource loads the import table into a session in the upload step.
type tableSource func(ctx context.Context, session *wizard.Session) error

func fileSource(path string) tableSource {
	return func(ctx context.Context, session *wizard.Session) error {
		data, err := os.ReadFile(path) // #nosec G304 -- path given by the user
		if err != nil {
			return common.NewUserError("Could not read "+path, err)
		}
		err = session.Upload(ctx, data, filepath.Base(path))
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil || errors.Is(err, wizard.ErrCancelled):
			return wizard.ErrCancelled
		default:
			return common.NewUserError("Could not parse "+path, err)
		}
	}
}

// tableReader is satisfied by *sheets.Reader.
type tableReader interface {
	ReadTable(ctx context.Context, spreadsheetID, readRange string) (*model.RawTable, error)
}

func sheetSource(reader tableReader, spreadsheetID, readRange string) tableSource {
	return func(ctx context.Context, session *wizard.Session) error {
		table, err := reader.ReadTable(ctx, spreadsheetID, readRange)
		if ctx.Err() != nil {
			return wizard.ErrCancelled
		}
		if err != nil {
			return fmt.Errorf("failed to read spreadsheet: %w", err)
		}
		return session.UseTable(table)
	}
}

// interrupted reports err as a cancellation once ctx is done.
func interrupted(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return wizard.ErrCancelled
	}
	return err
}

// importJob runs one non-TUI import through a wizard session.
type importJob struct {
	schema     *schema.Schema
	parser     wizard.Parser
	store      *storage.SQLiteStorage
	out        io.Writer
	prompter   *cli.Prompter // nil when running without questions
	owner      string
	overrides  []fieldHeader
	policy     importer.Policy
	checkpoint bool
}

func (j *importJob) run(ctx context.Context, source tableSource) (importer.Outcome, error) {
	progress := cli.NewCommitProgress(j.out, "Importing")
	session, err := wizard.New(wizard.Config{
		Schema:  j.schema,
		Parser:  j.parser,
		Sink:    j.store,
		Journal: j.store,
		ActorID: j.owner,
		Policy:  j.policy,
		Listener: func(ev wizard.Event) {
			if ev.Kind == wizard.EventProgress {
				progress.Update(ev.Done, ev.Total)
			}
			slog.Debug("Import event", "kind", ev.Kind, "step", ev.Step)
		},
	})
	if err != nil {
		return importer.Outcome{}, err
	}

	// An interrupt cancels the session; a running commit is abandoned.
	stopWatch := context.AfterFunc(ctx, func() { _ = session.Cancel() })
	defer stopWatch()

	if err := session.Begin(); err != nil {
		return importer.Outcome{}, interrupted(ctx, err)
	}
	if err := source(ctx, session); err != nil {
		return importer.Outcome{}, interrupted(ctx, err)
	}

	// An interrupt may have cancelled the session right after loading.
	table := session.Table()
	if table == nil || ctx.Err() != nil || session.Step() == wizard.StepCancelled {
		_ = session.Cancel()
		return importer.Outcome{}, wizard.ErrCancelled
	}
	j.printf("%s\n", cli.FormatTitle(fmt.Sprintf("%s (%d rows, %s)", table.Filename, len(table.Rows), table.Format)))
	j.printf("%s\n\n", cli.RenderPreview(table, 5))
	if table.Empty() {
		_ = session.Cancel()
		return importer.Outcome{}, nil
	}

	if err := applyMappings(session, j.overrides, j.schema, table.Headers); err != nil {
		_ = session.Cancel()
		return importer.Outcome{}, err
	}
	if err := j.askMissing(ctx, session, table.Headers); err != nil {
		_ = session.Cancel()
		return importer.Outcome{}, interrupted(ctx, err)
	}

	j.printf("%s\n\n", cli.RenderMapping(session.Mapping()))

	if missing := session.Missing(); len(missing) > 0 {
		_ = session.Cancel()
		return importer.Outcome{}, common.NewUserError(
			"Required fields have no column: "+strings.Join(missing, ", ")+". Use --map field=column",
			wizard.ErrMappingIncomplete)
	}

	report, err := session.Validate()
	if err != nil {
		return importer.Outcome{}, err
	}
	j.printf("%s\n\n", cli.RenderReport(report, reportLimit))

	if j.prompter != nil {
		question := fmt.Sprintf("Import %d rows as %s (%s)?", len(table.Rows), j.schema.Kind, policyText(session.Policy()))
		ok, err := j.prompter.Confirm(ctx, question, true)
		if err != nil {
			_ = session.Cancel()
			return importer.Outcome{}, interrupted(ctx, err)
		}
		if !ok {
			_ = session.Cancel()
			return importer.Outcome{}, wizard.ErrCancelled
		}
	}

	if j.checkpoint {
		if err := j.createCheckpoint(ctx); err != nil {
			_ = session.Cancel()
			return importer.Outcome{}, err
		}
	}

	outcome, err := session.Commit(ctx)
	progress.Finish()
	if err != nil {
		var blocked *importer.ValidationBlockedError
		if errors.As(err, &blocked) {
			return importer.Outcome{}, common.NewUserError("Nothing was imported", err)
		}
		return importer.Outcome{}, err
	}

	j.printf("%s\n", cli.RenderOutcome(outcome))
	return outcome, nil
}

// askMissing lets the user pick a column for each unmapped required field.
func (j *importJob) askMissing(ctx context.Context, session *wizard.Session, headers []string) error {
	if j.prompter == nil {
		return nil
	}
	for _, field := range session.Missing() {
		header, err := j.prompter.ChooseHeader(ctx, field, headers)
		if err != nil {
			return err
		}
		if header == "" {
			continue
		}
		if displaced, err := session.Assign(field, header); err != nil {
			return err
		} else if displaced != "" {
			j.printf("%s\n", cli.FormatWarning(fmt.Sprintf("%q was mapped to %s before.", header, displaced)))
		}
	}
	return nil
}

func (j *importJob) createCheckpoint(ctx context.Context) error {
	manager, err := storage.NewCheckpointManager(j.store)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	info, err := manager.AutoCheckpoint(ctx, "import")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	j.printf("%s\n", cli.FormatInfo("Checkpoint "+info.ID+" created"))
	return nil
}

func (j *importJob) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(j.out, format, args...); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

func policyText(p importer.Policy) string {
	if p == importer.AbortOnAnyError {
		return "abort on incomplete rows"
	}
	return "skip incomplete rows"
}
