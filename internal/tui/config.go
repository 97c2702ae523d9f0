package tui

import (
	"github.com/Veraticus/mandantenanalyse/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	ReadFile    func(path string) ([]byte, error)
	Width       int
	Height      int
	PreviewRows int
	ReportRows  int
	AltScreen   bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:       themes.Default,
		Width:       100,
		Height:      30,
		PreviewRows: 5,
		ReportRows:  15,
		AltScreen:   true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithPreviewRows sets how many table rows the preview step shows.
func WithPreviewRows(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.PreviewRows = n
		}
	}
}

// WithFileReader replaces os.ReadFile for the upload step.
func WithFileReader(read func(path string) ([]byte, error)) Option {
	return func(c *Config) {
		c.ReadFile = read
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
