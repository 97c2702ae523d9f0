package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:      "test-client",
				RefreshToken:  "test-token",
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "oauth with token file",
			config: Config{
				ClientID:     "test-client",
				ClientSecret: "secret",
				TokenFile:    "/tmp/token.json",
			},
		},
		{
			name: "both methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "secret",
				RefreshToken:       "token",
				ServiceAccountPath: "/path/to/key.json",
			},
			wantErr: true,
			errMsg:  "multiple authentication methods",
		},
		{
			name: "zero retry delay is valid",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
			},
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				RetryAttempts:      3,
				RetryDelay:         -1 * time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/mandant.json")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-123")

	config := DefaultConfig()
	assert.NoError(t, config.LoadFromEnv())
	assert.Equal(t, "/keys/mandant.json", config.ServiceAccountPath)
	assert.Equal(t, "sheet-123", config.SpreadsheetID)

	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	config = DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}
