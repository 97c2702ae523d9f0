package common

import "context"

// ProgressFunc receives the number of processed items out of total.
type ProgressFunc func(done, total int)

type progressKey struct{}

// WithProgress attaches a progress callback to ctx. Long-running storage
// operations report through it.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, fn)
}

// ReportProgress calls the callback attached to ctx, if any.
func ReportProgress(ctx context.Context, done, total int) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok {
		fn(done, total)
	}
}
