package importer

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mandantenanalyse/internal/common"
)

// Policy decides what happens to rows missing a required value.
type Policy int

// Commit policies.
const (
	// SkipInvalidRows leaves ineligible rows out and imports the rest.
	SkipInvalidRows Policy = iota
	// AbortOnAnyError refuses the whole import if any row is ineligible.
	AbortOnAnyError
)

func (p Policy) String() string {
	switch p {
	case SkipInvalidRows:
		return "skip"
	case AbortOnAnyError:
		return "abort"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy reads a policy name as used in configuration and flags.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip", "skip-invalid", "skipinvalidrows":
		return SkipInvalidRows, nil
	case "abort", "abort-on-error", "abortonanyerror", "strict":
		return AbortOnAnyError, nil
	default:
		return SkipInvalidRows, fmt.Errorf("%w: unknown import policy %q (want skip or abort)", common.ErrInvalidConfig, s)
	}
}
