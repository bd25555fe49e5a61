package search

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/poiesic/graphsearch/core"
)

// DefaultMatchTimeout bounds a single regex evaluation.
const DefaultMatchTimeout = time.Second

// Pattern is a compiled regex post filter. Patterns compile in regexp2's
// ECMAScript mode, so \d, \w and \s are ASCII classes as in JavaScript. One
// difference remains: without m, $ also matches before a final newline.
//
// Flags: i (ignore case), m (multiline), s (dot matches newline) and u
// (\u{...} escapes) change matching, while g, d and y are accepted and have no
// effect on a filter. A flag may appear at most once.
type Pattern struct {
	source string
	flags  string
	re     *regexp2.Regexp
}

// CompilePattern compiles pattern with flags.
func CompilePattern(pattern, flags string) (*Pattern, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	seen := make(map[rune]bool, len(flags))
	for _, f := range flags {
		if seen[f] {
			return nil, fmt.Errorf("%w: duplicate flag %q", ErrInvalidPattern, f)
		}
		seen[f] = true
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		case 'g', 'd', 'y':
		default:
			return nil, fmt.Errorf("%w: unknown flag %q", ErrInvalidPattern, f)
		}
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	re.MatchTimeout = DefaultMatchTimeout

	return &Pattern{source: pattern, flags: flags, re: re}, nil
}

func (p *Pattern) String() string {
	return "/" + p.source + "/" + p.flags
}

// MatchString reports whether s contains a match.
func (p *Pattern) MatchString(s string) (bool, error) {
	ok, err := p.re.MatchString(s)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPatternTimeout, err)
	}
	return ok, nil
}

// Apply keeps matches whose raw content matches the pattern. For declarative
// results the content is the serialized row, so the pattern sees JSON text.
func (p *Pattern) Apply(matches []core.SearchMatch) ([]core.SearchMatch, error) {
	kept := make([]core.SearchMatch, 0, len(matches))
	for _, m := range matches {
		ok, err := p.MatchString(m.Content)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, m)
		}
	}
	return kept, nil
}
