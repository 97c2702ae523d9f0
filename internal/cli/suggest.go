package cli

import (
	"strings"

	"github.com/schollz/closestmatch"
)

// Suggest returns the candidate closest to name, or "" when nothing is
// similar. Matching ignores case.
func Suggest(name string, candidates []string) string {
	if len(candidates) == 0 || strings.TrimSpace(name) == "" {
		return ""
	}

	byLower := make(map[string]string, len(candidates))
	lowered := make([]string, 0, len(candidates))
	for _, c := range candidates {
		l := strings.ToLower(c)
		if _, ok := byLower[l]; !ok {
			byLower[l] = c
			lowered = append(lowered, l)
		}
	}

	cm := closestmatch.New(lowered, []int{2, 3})
	return byLower[cm.Closest(strings.ToLower(name))]
}

// DidYouMean formats a suggestion hint, or "" when there is none.
func DidYouMean(name string, candidates []string) string {
	if s := Suggest(name, candidates); s != "" && s != name {
		return `did you mean "` + s + `"?`
	}
	return ""
}
