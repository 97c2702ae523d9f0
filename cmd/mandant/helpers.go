package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/config"
	"github.com/Veraticus/mandantenanalyse/internal/grid"
	"github.com/Veraticus/mandantenanalyse/internal/importer"
	"github.com/Veraticus/mandantenanalyse/internal/mapping"
	"github.com/Veraticus/mandantenanalyse/internal/schema"
	"github.com/Veraticus/mandantenanalyse/internal/storage"
)

const defaultDBPath = "$MANDANT_DATA_DIR/mandant.db"

// errNoOwner is returned when no advisor id is configured.
var errNoOwner = errors.New("no owner configured")

// openStorage opens the configured database and brings its schema up to date.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// currentOwner returns the advisor id every stored row belongs to.
func currentOwner() (string, error) {
	owner := strings.TrimSpace(viper.GetString("import.owner"))
	if owner == "" {
		return "", common.NewUserError("Set an owner with --owner or import.owner in the config file", errNoOwner)
	}
	return owner, nil
}

// loadSchema returns the target schema for kind with configured keyword
// overrides applied.
func loadSchema(kind string) (*schema.Schema, error) {
	s, err := schema.ForKind(kind)
	if err != nil {
		return nil, common.NewUserError(`Unknown import kind, use "clients" or "transactions"`, err)
	}

	path := config.ExpandPath(viper.GetString("import.keywords_file"))
	if path == "" {
		return s, nil
	}
	overrides, err := schema.LoadKeywordOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword overrides: %w", err)
	}
	return overrides.Apply(s)
}

// loadPolicy reads the commit policy from configuration.
func loadPolicy() (importer.Policy, error) {
	p, err := importer.ParsePolicy(viper.GetString("import.policy"))
	if err != nil {
		return p, common.NewUserError("Invalid import policy", err)
	}
	return p, nil
}

// newParser builds a grid parser from the import.sheet and import.delimiter
// settings.
func newParser() (*grid.Parser, error) {
	delimiter, err := parseDelimiter(viper.GetString("import.delimiter"))
	if err != nil {
		return nil, err
	}
	return grid.NewParser(grid.Options{
		Sheet:     viper.GetString("import.sheet"),
		Delimiter: delimiter,
	}), nil
}

// parseDelimiter reads a delimiter setting. Empty means sniff.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, common.NewUserError(fmt.Sprintf("Invalid delimiter %q, use a single character", s), common.ErrInvalidConfig)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// fieldHeader is one --map override.
type fieldHeader struct {
	field  string
	header string
}

// parseMappingFlags reads "field=header" pairs in the order given.
func parseMappingFlags(pairs []string) ([]fieldHeader, error) {
	out := make([]fieldHeader, 0, len(pairs))
	for _, pair := range pairs {
		field, header, ok := strings.Cut(pair, "=")
		field, header = strings.TrimSpace(field), strings.TrimSpace(header)
		if !ok || field == "" || header == "" {
			return nil, common.NewUserError(fmt.Sprintf("Invalid --map %q, expected field=column", pair), common.ErrInvalidConfig)
		}
		out = append(out, fieldHeader{field: field, header: header})
	}
	return out, nil
}

// mappingEditor is satisfied by a wizard session and a field mapping.
type mappingEditor interface {
	Assign(field, header string) (string, error)
}

// applyMappings assigns the --map overrides. Unknown names are reported
// with the closest known name.
func applyMappings(editor mappingEditor, overrides []fieldHeader, s *schema.Schema, headers []string) error {
	for _, o := range overrides {
		_, err := editor.Assign(o.field, o.header)
		switch {
		case err == nil:
			continue
		case errors.Is(err, mapping.ErrUnknownField):
			return common.NewUserError(withHint(fmt.Sprintf("Unknown field %q", o.field), o.field, s.Names()), err)
		case errors.Is(err, mapping.ErrUnknownHeader):
			return common.NewUserError(withHint(fmt.Sprintf("The file has no column %q", o.header), o.header, headers), err)
		default:
			return fmt.Errorf("failed to map %s: %w", o.field, err)
		}
	}
	return nil
}

func withHint(msg, name string, candidates []string) string {
	if hint := cli.DidYouMean(name, candidates); hint != "" {
		return msg + ", " + hint
	}
	return msg
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		if m := int(d.Minutes()); m > 1 {
			return fmt.Sprintf("%d minutes ago", m)
		}
		return "1 minute ago"
	case d < 24*time.Hour:
		if h := int(d.Hours()); h > 1 {
			return fmt.Sprintf("%d hours ago", h)
		}
		return "1 hour ago"
	case d < 7*24*time.Hour:
		if days := int(d.Hours() / 24); days > 1 {
			return fmt.Sprintf("%d days ago", days)
		}
		return "yesterday"
	default:
		return t.Format("02.01.2006 15:04")
	}
}
