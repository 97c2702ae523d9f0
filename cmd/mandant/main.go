package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mandant",
		Short: cli.LedgerIcon + " Client and bookkeeping import for tax advisors",
		Long: `mandant imports client master data and bank or ledger transactions from
spreadsheets (CSV, Excel, OFX or Google Sheets) into the local Mandantenanalyse
database. Columns are matched to the target fields automatically, every row is
checked before anything is written, and each import is recorded.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	// Global flags
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $MANDANT_CONFIG_DIR/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")
	root.PersistentFlags().String("db", "", "database path (default: $MANDANT_DATA_DIR/mandant.db)")
	root.PersistentFlags().String("owner", "", "advisor id that owns imported data")

	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", root.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("import.owner", root.PersistentFlags().Lookup("owner"))

	root.AddCommand(importCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(wizardCmd())
	root.AddCommand(clientsCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(checkpointCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(sheetsCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.Error()))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir := config.ConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MANDANT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(level, viper.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mandant %s\n", version)
		},
	}
}
