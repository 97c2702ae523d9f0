package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/config"
	"github.com/Veraticus/mandantenanalyse/internal/sheets"
)

const defaultTokenFile = "$MANDANT_CONFIG_DIR/sheets-token.json"

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets access",
	}
	cmd.AddCommand(sheetsLoginCmd())
	return cmd
}

func sheetsLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize read access to Google Sheets",
		Long: `Open the Google consent page and store the resulting OAuth2 token, so
"mandant import --spreadsheet" can read spreadsheets of your account.

Requires sheets.client_id and sheets.client_secret in the config file (or
GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := firstSet(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
			clientSecret := firstSet(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("Set sheets.client_id and sheets.client_secret first", common.ErrMissingConfig)
			}
			tokenFile := config.ExpandPath(firstSet(viper.GetString("sheets.token_file"), defaultTokenFile))

			out := cmd.OutOrStdout()
			_, err := sheets.Login(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
			}, func(url string) {
				fmt.Fprintln(out, cli.FormatInfo("Open this link in your browser to grant access:"))
				fmt.Fprintln(out, url)
			})
			if err != nil {
				return fmt.Errorf("google login failed: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess("Token saved to "+tokenFile))
			if viper.GetString("sheets.token_file") == "" {
				fmt.Fprintln(out, cli.SubtleStyle.Render("Add sheets.token_file: "+tokenFile+" to the config file to use it."))
			}
			return nil
		},
	}
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
