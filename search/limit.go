package search

import "github.com/poiesic/graphsearch/core"

// DefaultLimit is the number of matches shown when no limit is given.
const DefaultLimit = 20

// Limit returns the first n matches along with the number of matches before
// truncation. A non-positive n selects DefaultLimit.
func Limit(matches []core.SearchMatch, n int) ([]core.SearchMatch, int) {
	if n <= 0 {
		n = DefaultLimit
	}
	total := len(matches)
	if total > n {
		return matches[:n], total
	}
	return matches, total
}
