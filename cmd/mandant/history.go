package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past imports",
		Long:  `List finished imports, newest first, with the number of rows imported, skipped and rejected.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwnerStorage(cmd.Context(), func(store service.Storage, owner string) error {
				runs, err := store.ListImportRuns(cmd.Context(), owner, limit)
				if err != nil {
					return fmt.Errorf("failed to list imports: %w", err)
				}
				return printImportRuns(cmd.OutOrStdout(), runs, time.Now())
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of imports to show")

	return cmd
}

func printImportRuns(w io.Writer, runs []model.ImportRun, now time.Time) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, cli.SubtleStyle.Render("No imports yet."))
		return err
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			formatRelativeTime(r.FinishedAt, now),
			r.Kind,
			r.Filename,
			r.Policy,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Imported),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Errors),
		}
	}
	_, err := fmt.Fprintln(w, cli.RenderTable(
		[]string{"When", "Kind", "File", "Policy", "Rows", "Imported", "Skipped", "Rejected"}, rows))
	return err
}
