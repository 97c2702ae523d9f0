package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mandantenanalyse/internal/service"
)

var fastRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2,
}

func TestWithRetry(t *testing.T) {
	errTemporary := errors.New("temporary")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "first attempt succeeds", wantCalls: 1},
		{name: "recovers after failures", failures: []error{errTemporary, errTemporary}, wantCalls: 3},
		{
			name:      "gives up after max attempts",
			failures:  []error{errTemporary, errTemporary, errTemporary},
			wantCalls: 3,
			wantErr:   ErrMaxRetries,
		},
		{
			name:      "server wait is capped by max delay",
			failures:  []error{&RetryableError{Err: ErrRateLimit, Retryable: true, RetryAfter: time.Hour}},
			wantCalls: 2,
		},
		{
			name:      "bare rate limit is retried",
			failures:  []error{ErrRateLimit},
			wantCalls: 2,
		},
		{
			name:      "permanent error stops immediately",
			failures:  []error{&RetryableError{Err: errTemporary, Retryable: false}},
			wantCalls: 1,
			wantErr:   errTemporary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), "sheets.values", func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			}, fastRetry)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if errors.Is(tt.wantErr, ErrMaxRetries) {
					assert.Contains(t, err.Error(), "sheets.values")
				}
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := fastRetry
	opts.InitialDelay = time.Hour
	opts.MaxDelay = time.Hour

	err := WithRetry(ctx, "sheets.get", func() error {
		cancel()
		return errors.New("temporary")
	}, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("x")))
}

func TestProgress(t *testing.T) {
	ReportProgress(context.Background(), 1, 2)

	var got [][2]int
	ctx := WithProgress(context.Background(), func(done, total int) {
		got = append(got, [2]int{done, total})
	})
	ReportProgress(ctx, 1, 2)
	ReportProgress(ctx, 2, 2)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, got)
	assert.Equal(t, context.Background(), WithProgress(context.Background(), nil))
}

func TestUserError(t *testing.T) {
	err := NewUserError("Set an owner", ErrMissingConfig)

	assert.Equal(t, "Set an owner: missing configuration", err.Error())
	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.Equal(t, "Set an owner", NewUserError("Set an owner", nil).Error())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelInfo, "json"))

	LogError(errors.New("disk full"), "Failed to record import run", Fields{"file": "mandanten.csv"})
	slog.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"Failed to record import run"`)
	assert.Contains(t, out, `"error":"disk full"`)
	assert.Contains(t, out, `"file":"mandanten.csv"`)
	assert.NotContains(t, out, "hidden")

	assert.ErrorIs(t, SetupLoggerTo(&buf, slog.LevelInfo, "xml"), ErrInvalidConfig)
}
