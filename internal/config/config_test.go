package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("MANDANT_TEST_DIR", "/data")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty", path: "", want: ""},
		{name: "home", path: "~", want: home},
		{name: "home prefix", path: "~/mandant/db.sqlite", want: filepath.Join(home, "mandant/db.sqlite")},
		{name: "env var", path: "$MANDANT_TEST_DIR/db.sqlite", want: "/data/db.sqlite"},
		{name: "unknown var", path: "$MANDANT_UNSET_TEST_VAR/db.sqlite", want: "/db.sqlite"},
		{name: "plain", path: "/var/lib/mandant.db", want: "/var/lib/mandant.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}

func TestExpandPath_MandantDirs(t *testing.T) {
	home := t.TempDir()

	tests := []struct {
		name        string
		env         map[string]string
		wantData    string
		wantConfig  string
		wantDBPath  string
		wantDBInput string
	}{
		{
			name:        "defaults below home",
			wantData:    filepath.Join(home, ".local", "share", "mandant"),
			wantConfig:  filepath.Join(home, ".config", "mandant"),
			wantDBInput: "$MANDANT_DATA_DIR/mandant.db",
			wantDBPath:  filepath.Join(home, ".local", "share", "mandant", "mandant.db"),
		},
		{
			name:        "xdg directories",
			env:         map[string]string{"XDG_DATA_HOME": "/xdg/data", "XDG_CONFIG_HOME": "/xdg/config"},
			wantData:    "/xdg/data/mandant",
			wantConfig:  "/xdg/config/mandant",
			wantDBInput: "${XDG_DATA_HOME}/other.db",
			wantDBPath:  "/xdg/data/other.db",
		},
		{
			name:        "explicit mandant directories",
			env:         map[string]string{"MANDANT_DATA_DIR": "/srv/mandant", "MANDANT_CONFIG_DIR": "/etc/mandant", "XDG_DATA_HOME": "/xdg/data"},
			wantData:    "/srv/mandant",
			wantConfig:  "/etc/mandant",
			wantDBInput: "$MANDANT_DATA_DIR/mandant.db",
			wantDBPath:  "/srv/mandant/mandant.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			for _, name := range []string{"XDG_DATA_HOME", "XDG_CONFIG_HOME", DataDirVar, ConfigDirVar} {
				unsetEnv(t, name)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			assert.Equal(t, tt.wantData, DataDir())
			assert.Equal(t, tt.wantConfig, ConfigDir())
			assert.Equal(t, tt.wantDBPath, ExpandPath(tt.wantDBInput))
		})
	}
}

// unsetEnv removes name for the duration of the test.
func unsetEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

func TestLoadSheetsConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-sheet")

	viper.Set("sheets.client_id", "viper-client")
	viper.Set("sheets.refresh_token", "viper-token")
	viper.Set("sheets.range", "Mandanten!A:G")
	viper.Set("sheets.retry_delay", "2s")

	config, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "viper-client", config.ClientID)
	assert.Equal(t, "env-secret", config.ClientSecret)
	assert.Equal(t, "viper-token", config.RefreshToken)
	assert.Equal(t, "env-sheet", config.SpreadsheetID)
	assert.Equal(t, "Mandanten!A:G", config.ReadRange)
	assert.Equal(t, 2*time.Second, config.RetryDelay)
	assert.Equal(t, 3, config.RetryAttempts)
}

func TestLoadSheetsConfig_NoAuth(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
	} {
		t.Setenv(key, "")
	}

	_, err := LoadSheetsConfig()
	assert.Error(t, err)
}
