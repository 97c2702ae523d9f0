// Package schema defines the target schemas an import can populate. A schema
// is configuration: an ordered list of fields with their required flag, the
// keyword group used to recognize source headers, and a validation rule.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// ErrUnknownKind is returned for an import kind without a schema.
var ErrUnknownKind = errors.New("unknown import kind")

// ErrUnknownField is returned when a field name is not part of a schema.
var ErrUnknownField = errors.New("unknown field")

// Kind names an import kind.
type Kind string

// Import kinds.
const (
	KindClients      Kind = "clients"
	KindTransactions Kind = "transactions"
)

// Rule checks a mapped, non-empty value. The error message is shown to the
// user next to the row and field.
type Rule func(model.Cell) error

// Normalizer converts a valid value to the form it is stored in.
type Normalizer func(model.Cell) (string, error)

// Keywords is the keyword group used to recognize a source header. Matching
// is a case-insensitive substring test; an Exclude hit vetoes the group.
type Keywords struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Match reports whether header belongs to this keyword group.
func (k Keywords) Match(header string) bool {
	h := strings.ToLower(header)
	for _, ex := range k.Exclude {
		if strings.Contains(h, ex) {
			return false
		}
	}
	for _, in := range k.Include {
		if strings.Contains(h, in) {
			return true
		}
	}
	return false
}

// Field is one target field of a schema.
type Field struct {
	Rule        Rule
	Normalize   Normalizer
	Keywords    Keywords
	Name        string
	Column      string // storage column
	Description string
	Default     string // stored when an optional field is empty
	Required    bool
}

// Schema is an ordered set of target fields for one import kind.
type Schema struct {
	Kind       Kind
	Collection string
	fields     []Field
}

// New creates a schema. Field order is significant: it drives header matching
// and the order of validation findings.
func New(kind Kind, collection string, fields ...Field) *Schema {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return &Schema{Kind: kind, Collection: collection, fields: cp}
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields returns the required fields in declaration order.
func (s *Schema) RequiredFields() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Normalize returns the stored form of a mapped value. Empty values become
// the field default; values the normalizer rejects are stored trimmed.
func (s *Schema) Normalize(field Field, c model.Cell) string {
	if c.IsBlank() {
		return field.Default
	}
	if field.Normalize != nil {
		if v, err := field.Normalize(c); err == nil {
			return v
		}
	}
	return c.Trimmed()
}

// WithKeywords returns a copy of the schema whose keyword groups are extended
// by extra, keyed by field name.
func (s *Schema) WithKeywords(extra map[string][]string) (*Schema, error) {
	out := New(s.Kind, s.Collection, s.fields...)
	for name, words := range extra {
		idx := -1
		for i, f := range out.fields {
			if f.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q in %s schema", ErrUnknownField, name, s.Kind)
		}
		include := make([]string, 0, len(out.fields[idx].Keywords.Include)+len(words))
		include = append(include, out.fields[idx].Keywords.Include...)
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				include = append(include, w)
			}
		}
		out.fields[idx].Keywords.Include = include
	}
	return out, nil
}

// ForKind returns the schema for an import kind. German aliases are accepted.
func ForKind(kind string) (*Schema, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "clients", "client", "mandanten":
		return Client(), nil
	case "transactions", "transaction", "buchungen":
		return Transaction(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
