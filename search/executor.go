package search

import (
	"context"

	"github.com/poiesic/graphsearch/core"
)

// Scope selects what a text query runs against.
type Scope string

const (
	// ScopeBlocks matches text inside block content.
	ScopeBlocks Scope = "blocks"
	// ScopePageTitles matches page titles by prefix.
	ScopePageTitles Scope = "page_titles"
)

// Executor runs the remote half of a search. Implementations perform one round
// trip per call and report failures either as an error or as an unsuccessful
// SearchResult.
type Executor interface {
	// TextQuery finds blocks containing text, or pages whose title starts with
	// text when scope is ScopePageTitles. pageScope, when non-empty, is a page
	// title or uid restricting block results to that page.
	TextQuery(ctx context.Context, text, pageScope string, scope Scope) (*core.SearchResult, error)

	// TagQuery finds blocks referencing the canonical tag.
	TagQuery(ctx context.Context, tag, pageScope string) (*core.SearchResult, error)

	// DeclarativeQuery runs a raw query with optional bound inputs. The content of
	// each match is the serialized result row.
	DeclarativeQuery(ctx context.Context, query string, inputs []any) (*core.SearchResult, error)
}
