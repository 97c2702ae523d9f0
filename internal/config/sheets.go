// Package config provides configuration utilities for the application.
package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or MANDANT_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstNonEmpty(
		viper.GetString("sheets.service_account_path"),
		os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"),
	))
	config.ClientID = firstNonEmpty(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstNonEmpty(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstNonEmpty(viper.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstNonEmpty(viper.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.ReadRange = viper.GetString("sheets.range")
	config.TokenFile = ExpandPath(viper.GetString("sheets.token_file"))

	if viper.IsSet("sheets.retry_attempts") {
		config.RetryAttempts = viper.GetInt("sheets.retry_attempts")
	}
	if viper.IsSet("sheets.retry_delay") {
		config.RetryDelay = viper.GetDuration("sheets.retry_delay")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
