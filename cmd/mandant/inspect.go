package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/mapping"
	"github.com/Veraticus/mandantenanalyse/internal/schema"
	"github.com/Veraticus/mandantenanalyse/internal/validation"
	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how a file would be imported without writing anything",
		Long: `Parse a file, propose the column mapping and check every row, exactly as
import would, but stop before anything is written to the database.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().StringP("kind", "k", "clients", "what the file contains (clients, transactions)")
	cmd.Flags().StringArray("map", nil, `map a field to a column, as "field=column" (repeatable)`)
	cmd.Flags().Int("rows", 10, "number of rows to preview")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	mapFlags, _ := cmd.Flags().GetStringArray("map")
	rows, _ := cmd.Flags().GetInt("rows")

	overrides, err := parseMappingFlags(mapFlags)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("kind") && viper.IsSet("import.kind") {
		kind = viper.GetString("import.kind")
	}
	s, err := loadSchema(kind)
	if err != nil {
		return err
	}
	parser, err := newParser()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0]) // #nosec G304 -- path given by the user
	if err != nil {
		return common.NewUserError("Could not read "+args[0], err)
	}
	return inspect(cmd.Context(), cmd.OutOrStdout(), parser, s, data, filepath.Base(args[0]), overrides, rows)
}

func inspect(ctx context.Context, out io.Writer, parser wizard.Parser, s *schema.Schema, data []byte, filename string, overrides []fieldHeader, previewRows int) error {
	table, err := parser.Parse(ctx, data, filename)
	if err != nil {
		return common.NewUserError("Could not parse "+filename, err)
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle(fmt.Sprintf("%s (%d rows, %s)", table.Filename, len(table.Rows), table.Format)) + "\n")
	b.WriteString(cli.RenderPreview(table, previewRows) + "\n\n")

	m := mapping.Propose(table.Headers, s)
	if err := applyMappings(m, overrides, s, table.Headers); err != nil {
		return err
	}
	b.WriteString(cli.RenderMapping(m) + "\n\n")

	if missing := m.Missing(); len(missing) > 0 {
		b.WriteString(cli.FormatWarning("Required fields have no column: "+strings.Join(missing, ", ")) + "\n")
		_, err := fmt.Fprint(out, b.String())
		return err
	}

	report := validation.Validate(table, m, s)
	b.WriteString(cli.RenderReport(report, reportLimit) + "\n\n")

	eligible := 0
	for _, row := range mapping.Apply(table, m) {
		if validation.RowEligible(row, s) {
			eligible++
		}
	}
	b.WriteString(cli.FormatInfo(fmt.Sprintf("%d of %d rows can be imported.", eligible, len(table.Rows))) + "\n")

	_, err = fmt.Fprint(out, b.String())
	return err
}
