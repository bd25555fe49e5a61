package search

import (
	"strings"

	"github.com/poiesic/graphsearch/core"
)

// MatchText keeps matches whose content contains text, ignoring case.
func MatchText(matches []core.SearchMatch, text string) []core.SearchMatch {
	lowered := strings.ToLower(text)
	kept := make([]core.SearchMatch, 0, len(matches))
	for _, m := range matches {
		if strings.Contains(strings.ToLower(m.Content), lowered) {
			kept = append(kept, m)
		}
	}
	return kept
}
