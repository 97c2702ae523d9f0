package sheets

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/model"
)

type fakeSource struct {
	err        error
	title      string
	gotRange   string
	values     [][]any
	failures   []error
	valueCalls int
}

func (f *fakeSource) FirstSheet(_ context.Context, _ string) (string, error) {
	if f.title == "" {
		return "", ErrNoSheets
	}
	return f.title, nil
}

func (f *fakeSource) Values(_ context.Context, _, readRange string) ([][]any, error) {
	f.valueCalls++
	f.gotRange = readRange
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

func testConfig() Config {
	return Config{RetryAttempts: 3, RetryDelay: time.Millisecond}
}

func TestReader_ReadTable(t *testing.T) {
	source := &fakeSource{
		title: "Mandanten",
		values: [][]any{
			{"Firma", "Mitarbeiter", "PLZ", "", "Aktiv"},
			{"Müller GmbH", 12.0, 10115.0, "", true},
			{"", "", ""},
			{"Weber AG", 250.0},
		},
	}
	reader := newReaderWithSource(source, testConfig())

	table, err := reader.ReadTable(context.Background(), "sheet-1", "")
	require.NoError(t, err)

	assert.Equal(t, "Mandanten", source.gotRange)
	assert.Equal(t, model.FormatSheets, table.Format)
	assert.Equal(t, "sheet-1!Mandanten", table.Filename)
	assert.Equal(t, []string{"Firma", "Mitarbeiter", "PLZ", "__EMPTY", "Aktiv"}, table.Headers)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, model.StringCell("Müller GmbH"), first["Firma"])
	assert.Equal(t, model.NumberCell(12), first["Mitarbeiter"])
	assert.Equal(t, "10115", first["PLZ"].String())
	assert.Equal(t, "true", first["Aktiv"].String())
	assert.NotContains(t, first, "__EMPTY")

	assert.Equal(t, "Weber AG", table.Rows[1]["Firma"].String())
}

func TestReader_ExplicitRange(t *testing.T) {
	source := &fakeSource{values: [][]any{{"Firma"}, {"Müller GmbH"}}}
	reader := newReaderWithSource(source, Config{ReadRange: "Kunden!A1:F100"})

	table, err := reader.ReadTable(context.Background(), "sheet-1", "")
	require.NoError(t, err)
	assert.Equal(t, "Kunden!A1:F100", source.gotRange)
	assert.Len(t, table.Rows, 1)
}

func TestReader_MissingSpreadsheetID(t *testing.T) {
	reader := newReaderWithSource(&fakeSource{}, testConfig())
	_, err := reader.ReadTable(context.Background(), "", "A1:B2")
	assert.Error(t, err)
}

func TestReader_Retries(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "server error is retried",
			failures:  []error{&googleapi.Error{Code: http.StatusServiceUnavailable}},
			wantCalls: 2,
		},
		{
			name:      "not found is permanent",
			failures:  []error{&googleapi.Error{Code: http.StatusNotFound}},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name: "gives up after max attempts",
			failures: []error{
				&googleapi.Error{Code: http.StatusInternalServerError},
				&googleapi.Error{Code: http.StatusInternalServerError},
				&googleapi.Error{Code: http.StatusInternalServerError},
			},
			wantErr:   true,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{
				values:   [][]any{{"Firma"}, {"Müller GmbH"}},
				failures: tt.failures,
			}
			reader := newReaderWithSource(source, testConfig())

			_, err := reader.ReadTable(context.Background(), "sheet-1", "A:F")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, source.valueCalls)
		})
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))

	tests := []struct {
		name          string
		err           *googleapi.Error
		wantRetryable bool
		wantAfter     time.Duration
		wantRateLimit bool
	}{
		{name: "rate limit", err: &googleapi.Error{Code: http.StatusTooManyRequests}, wantRetryable: true, wantRateLimit: true},
		{
			name:          "rate limit with retry-after",
			err:           &googleapi.Error{Code: http.StatusTooManyRequests, Header: http.Header{"Retry-After": []string{"7"}}},
			wantRetryable: true,
			wantAfter:     7 * time.Second,
			wantRateLimit: true,
		},
		{
			name:          "unparseable retry-after",
			err:           &googleapi.Error{Code: http.StatusTooManyRequests, Header: http.Header{"Retry-After": []string{"Wed, 21 Oct 2026 07:28:00 GMT"}}},
			wantRetryable: true,
			wantRateLimit: true,
		},
		{name: "server error", err: &googleapi.Error{Code: http.StatusBadGateway}, wantRetryable: true},
		{name: "forbidden", err: &googleapi.Error{Code: http.StatusForbidden}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)

			var retryable *common.RetryableError
			require.ErrorAs(t, got, &retryable)
			assert.Equal(t, tt.wantRetryable, retryable.Retryable)
			assert.Equal(t, tt.wantAfter, retryable.RetryAfter)
			assert.Equal(t, tt.wantRateLimit, errors.Is(got, common.ErrRateLimit))
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, saveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.Equal(t, "access", loaded.AccessToken)
}
