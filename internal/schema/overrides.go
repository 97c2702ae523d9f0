package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeywordOverrides holds extra header keywords per import kind and field.
//
// Example file:
//
//	clients:
//	  company name: [kanzlei, mandantenname]
//	transactions:
//	  booking text: [buchungsinfo]
type KeywordOverrides map[Kind]map[string][]string

// LoadKeywordOverrides reads keyword overrides from a YAML file.
func LoadKeywordOverrides(path string) (KeywordOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword overrides: %w", err)
	}
	return ParseKeywordOverrides(data)
}

// ParseKeywordOverrides decodes keyword overrides from YAML.
func ParseKeywordOverrides(data []byte) (KeywordOverrides, error) {
	var overrides KeywordOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse keyword overrides: %w", err)
	}
	for kind := range overrides {
		if kind != KindClients && kind != KindTransactions {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
	}
	return overrides, nil
}

// Apply extends s with the overrides for its kind.
func (o KeywordOverrides) Apply(s *Schema) (*Schema, error) {
	extra, ok := o[s.Kind]
	if !ok || len(extra) == 0 {
		return s, nil
	}
	return s.WithKeywords(extra)
}
