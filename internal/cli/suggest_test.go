package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	headers := []string{"Firmenname", "Mitarbeiter", "Postleitzahl", "Ort"}

	tests := []struct {
		name       string
		input      string
		candidates []string
		want       string
	}{
		{name: "typo", input: "Firmname", candidates: headers, want: "Firmenname"},
		{name: "case", input: "MITARBEITER", candidates: headers, want: "Mitarbeiter"},
		{name: "partial", input: "postleitz", candidates: headers, want: "Postleitzahl"},
		{name: "nothing similar", input: "xyz", candidates: headers, want: ""},
		{name: "empty input", input: " ", candidates: headers, want: ""},
		{name: "no candidates", input: "Ort", candidates: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.input, tt.candidates))
		})
	}
}

func TestDidYouMean(t *testing.T) {
	fields := []string{"company name", "employee count", "postal code"}

	assert.Equal(t, `did you mean "postal code"?`, DidYouMean("postal cod", fields))
	assert.Empty(t, DidYouMean("postal code", fields), "exact names need no hint")
	assert.Empty(t, DidYouMean("qqq", fields))
}
