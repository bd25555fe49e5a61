package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/graphsearch/tags"
)

// ModeKind names a search mode.
type ModeKind string

const (
	ModeText        ModeKind = "text"
	ModeTag         ModeKind = "tag"
	ModeDeclarative ModeKind = "declarative"
	ModeNamespace   ModeKind = "namespace"
)

// Mode is one of TextSearch, TagSearch, DeclarativeSearch or NamespaceSearch.
type Mode interface {
	Kind() ModeKind
	mode()
}

// TextSearch looks up blocks by free text and refines them locally.
type TextSearch struct {
	Text            string
	PageScope       string
	CaseInsensitive bool
	Filter          TagFilter
}

// TagSearch looks up blocks referencing PrimaryTag. Filter.Required holds the full
// tag list only when more than one tag was requested.
type TagSearch struct {
	PrimaryTag string
	PageScope  string
	Filter     TagFilter
}

// DeclarativeSearch runs a raw query. Pattern may be nil.
type DeclarativeSearch struct {
	Query   string
	Inputs  []any
	Pattern *Pattern
}

// NamespaceSearch finds pages titled "<Prefix>/...". Prefix carries no trailing slash.
type NamespaceSearch struct {
	Prefix string
}

func (TextSearch) Kind() ModeKind        { return ModeText }
func (TagSearch) Kind() ModeKind         { return ModeTag }
func (DeclarativeSearch) Kind() ModeKind { return ModeDeclarative }
func (NamespaceSearch) Kind() ModeKind   { return ModeNamespace }

func (TextSearch) mode()        {}
func (TagSearch) mode()         {}
func (DeclarativeSearch) mode() {}
func (NamespaceSearch) mode()   {}

// Request holds the flat parameters of a search invocation, as collected from
// the command line.
type Request struct {
	Terms           []string
	Tags            []string
	AnyTag          bool // OR logic across Tags instead of AND
	ExcludedTags    []string
	PageScope       string
	CaseInsensitive bool
	Limit           int

	Query      string
	Inputs     string // JSON array bound to the query inputs
	Regex      string
	RegexFlags string

	Namespace string
}

// SelectMode picks the single mode a request runs in.
// Precedence is namespace, declarative query, tags without text, then text.
func SelectMode(req Request) (Mode, error) {
	if ns := strings.TrimSpace(req.Namespace); ns != "" {
		prefix := NormalizeNamespace(ns)
		if prefix == "" {
			return nil, fmt.Errorf("%w: namespace prefix %q is empty", ErrNoCriteria, req.Namespace)
		}
		return NamespaceSearch{Prefix: prefix}, nil
	}

	if q := strings.TrimSpace(req.Query); q != "" {
		mode := DeclarativeSearch{Query: q}
		if req.Inputs != "" {
			inputs, err := ParseInputs(req.Inputs)
			if err != nil {
				return nil, err
			}
			mode.Inputs = inputs
		}
		if req.Regex != "" {
			pattern, err := CompilePattern(req.Regex, req.RegexFlags)
			if err != nil {
				return nil, err
			}
			mode.Pattern = pattern
		}
		return mode, nil
	}

	required := tags.NormalizeAll(req.Tags)
	excluded := tags.NormalizeAll(req.ExcludedTags)
	logic := LogicAnd
	if req.AnyTag {
		logic = LogicOr
	}
	terms := cleanTerms(req.Terms)

	switch {
	case len(required) > 0 && len(terms) == 0:
		mode := TagSearch{
			PrimaryTag: required[0],
			PageScope:  req.PageScope,
			Filter:     TagFilter{Logic: logic, Excluded: excluded},
		}
		// The primary tag is enforced by the executor; local inclusion only
		// matters once there is more than one tag to combine.
		if len(required) > 1 {
			mode.Filter.Required = required
		}
		return mode, nil
	case len(terms) > 0:
		return TextSearch{
			Text:            strings.Join(terms, " "),
			PageScope:       req.PageScope,
			CaseInsensitive: req.CaseInsensitive,
			Filter:          TagFilter{Required: required, Logic: logic, Excluded: excluded},
		}, nil
	}

	return nil, fmt.Errorf("%w: provide search terms or use a tag filter", ErrNoCriteria)
}

// NormalizeNamespace strips trailing slashes from a namespace prefix.
func NormalizeNamespace(prefix string) string {
	return strings.TrimRight(strings.TrimSpace(prefix), "/")
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
