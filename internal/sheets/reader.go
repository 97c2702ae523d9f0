package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/grid"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

// ErrNoSheets is returned for a spreadsheet without worksheets.
var ErrNoSheets = errors.New("spreadsheet has no sheets")

// valuesSource is the part of the Sheets API the reader needs.
type valuesSource interface {
	FirstSheet(ctx context.Context, spreadsheetID string) (string, error)
	Values(ctx context.Context, spreadsheetID, readRange string) ([][]any, error)
}

// Reader fetches a sheet range and converts it into a table.
type Reader struct {
	source valuesSource
	config Config
}

// NewReader creates a reader authenticated from config.
func NewReader(ctx context.Context, config Config) (*Reader, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Reader{source: &apiSource{service: srv}, config: config}, nil
}

func newReaderWithSource(source valuesSource, config Config) *Reader {
	return &Reader{source: source, config: config}
}

// ReadTable reads readRange (A1 notation) of a spreadsheet. An empty range
// reads the whole first sheet. Numbers and dates arrive unformatted so they
// are validated like workbook cells.
func (r *Reader) ReadTable(ctx context.Context, spreadsheetID, readRange string) (*model.RawTable, error) {
	if spreadsheetID == "" {
		spreadsheetID = r.config.SpreadsheetID
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id", common.ErrMissingConfig)
	}
	if readRange == "" {
		readRange = r.config.ReadRange
	}

	opts := service.RetryOptions{
		MaxAttempts:  r.config.RetryAttempts,
		InitialDelay: r.config.RetryDelay,
	}

	if readRange == "" {
		err := common.WithRetry(ctx, "sheets.get", func() error {
			title, err := r.source.FirstSheet(ctx, spreadsheetID)
			if err != nil {
				return classify(err)
			}
			readRange = title
			return nil
		}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to read spreadsheet %s: %w", spreadsheetID, err)
		}
	}

	var values [][]any
	err := common.WithRetry(ctx, "sheets.values", func() error {
		var err error
		values, err = r.source.Values(ctx, spreadsheetID, readRange)
		return classify(err)
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read range %q: %w", readRange, err)
	}

	cells := make([][]model.Cell, len(values))
	for i, row := range values {
		cells[i] = make([]model.Cell, len(row))
		for j, v := range row {
			cells[i][j] = toCell(v)
		}
	}

	table := grid.FromGrid(spreadsheetID+"!"+readRange, model.FormatSheets, cells)
	slog.Debug("Read sheet",
		"spreadsheet", spreadsheetID,
		"range", readRange,
		"headers", len(table.Headers),
		"rows", len(table.Rows))
	return table, nil
}

func toCell(v any) model.Cell {
	switch val := v.(type) {
	case nil:
		return model.EmptyCell()
	case float64:
		return model.NumberCell(val)
	case bool:
		return model.StringCell(strconv.FormatBool(val))
	case string:
		if val == "" {
			return model.EmptyCell()
		}
		return model.StringCell(val)
	default:
		return model.StringCell(fmt.Sprint(val))
	}
}

// classify marks client errors as permanent so only rate limits and server
// errors are retried.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &common.RetryableError{
				Err:        fmt.Errorf("%w: %w", common.ErrRateLimit, err),
				Retryable:  true,
				RetryAfter: retryAfter(apiErr.Header),
			}
		case apiErr.Code >= http.StatusInternalServerError:
			return &common.RetryableError{Err: err, Retryable: true}
		default:
			return &common.RetryableError{Err: err, Retryable: false}
		}
	}
	if errors.Is(err, ErrNoSheets) {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

type apiSource struct {
	service *sheets.Service
}

func (a *apiSource) FirstSheet(ctx context.Context, spreadsheetID string) (string, error) {
	ss, err := a.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", ErrNoSheets
	}
	return ss.Sheets[0].Properties.Title, nil
}

func (a *apiSource) Values(ctx context.Context, spreadsheetID, readRange string) ([][]any, error) {
	resp, err := a.service.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// createSheetsService creates an authenticated read-only Sheets service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		if config.RefreshToken == "" && config.TokenFile != "" {
			saved, err := LoadToken(config.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("unable to load token file: %w", err)
			}
			token = saved
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret).TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}
