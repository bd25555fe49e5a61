package search

import (
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/tags"
)

// Logic combines required tags.
type Logic int

const (
	// LogicAnd keeps matches containing every required tag.
	LogicAnd Logic = iota
	// LogicOr keeps matches containing at least one required tag.
	LogicOr
)

func (l Logic) String() string {
	if l == LogicOr {
		return "OR"
	}
	return "AND"
}

// TagFilter combines tag predicates over a match set.
// Tags are expected in canonical form (see tags.Normalize).
type TagFilter struct {
	Required []string
	Logic    Logic
	Excluded []string
}

// IsEmpty reports whether the filter would keep every match.
func (f TagFilter) IsEmpty() bool {
	return len(f.Required) == 0 && len(f.Excluded) == 0
}

// Apply filters matches by required tags, then drops any match containing an
// excluded tag. Exclusion applies whatever the inclusion logic.
func (f TagFilter) Apply(matches []core.SearchMatch) []core.SearchMatch {
	if f.IsEmpty() {
		return matches
	}

	kept := make([]core.SearchMatch, 0, len(matches))
	for _, m := range matches {
		if len(f.Required) > 0 && !f.includes(m.Content) {
			continue
		}
		if f.excludes(m.Content) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func (f TagFilter) includes(content string) bool {
	if f.Logic == LogicOr {
		for _, t := range f.Required {
			if tags.Contains(content, t) {
				return true
			}
		}
		return false
	}
	for _, t := range f.Required {
		if !tags.Contains(content, t) {
			return false
		}
	}
	return true
}

func (f TagFilter) excludes(content string) bool {
	for _, t := range f.Excluded {
		if tags.Contains(content, t) {
			return true
		}
	}
	return false
}
