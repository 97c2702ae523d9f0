package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/tui"
	"github.com/Veraticus/mandantenanalyse/internal/tui/themes"
	"github.com/Veraticus/mandantenanalyse/internal/wizard"
)

func wizardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Import a file step by step in the terminal UI",
		Long: `Open the interactive import wizard: choose a file, check and adjust the
column mapping, review the validation report and import.`,
		Args: cobra.NoArgs,
		RunE: runWizard,
	}

	cmd.Flags().StringP("kind", "k", "clients", "what the file contains (clients, transactions)")
	cmd.Flags().String("theme", "", "color theme (default, catppuccin)")

	_ = viper.BindPFlag("ui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runWizard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	kind, _ := cmd.Flags().GetString("kind")
	if !cmd.Flags().Changed("kind") && viper.IsSet("import.kind") {
		kind = viper.GetString("import.kind")
	}
	s, err := loadSchema(kind)
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

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	outcome, err := tui.Run(ctx, wizard.Config{
		Schema:  s,
		Parser:  parser,
		Sink:    store,
		Journal: store,
		ActorID: owner,
		Policy:  policy,
	}, tui.WithTheme(themes.GetTheme(viper.GetString("ui.theme"))))
	if errors.Is(err, wizard.ErrCancelled) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Import cancelled. Nothing was stored."))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderOutcome(outcome))
	return nil
}
