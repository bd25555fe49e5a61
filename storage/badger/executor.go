package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/query"
	"github.com/poiesic/graphsearch/search"
	"github.com/poiesic/graphsearch/storage"
)

// Executor answers search queries directly from the store.
type Executor struct {
	backend *Backend
}

var (
	_ search.Executor   = (*Executor)(nil)
	_ query.FactSource = (*Executor)(nil)
)

// NewExecutor creates an executor reading from backend.
func NewExecutor(backend *Backend) *Executor {
	return &Executor{backend: backend}
}

// TextQuery matches block content case-insensitively, or page titles by
// case-sensitive prefix when scope is search.ScopePageTitles.
func (e *Executor) TextQuery(ctx context.Context, text, pageScope string, scope search.Scope) (*core.SearchResult, error) {
	var matches []core.SearchMatch
	err := e.backend.WithTx(func(tx *badger.Txn) error {
		if scope == search.ScopePageTitles {
			pages, err := scanPagesByTitle(ctx, tx, text)
			if err != nil {
				return err
			}
			for _, page := range pages {
				matches = append(matches, pageMatch(page))
			}
			return nil
		}

		needle := strings.ToLower(text)
		return e.scanScoped(ctx, tx, pageScope, func(block *core.Block, page *core.Page) {
			if strings.Contains(strings.ToLower(block.Content), needle) {
				matches = append(matches, blockMatch(block, page))
			}
		})
	}, false)
	if err != nil {
		return nil, err
	}

	e.backend.logger.Debug("text query", "text", text, "scope", scope, "page", pageScope, "matches", len(matches))
	return success(matches), nil
}

// TagQuery returns blocks whose extracted tags include tag.
func (e *Executor) TagQuery(ctx context.Context, tag, pageScope string) (*core.SearchResult, error) {
	var matches []core.SearchMatch
	err := e.backend.WithTx(func(tx *badger.Txn) error {
		var scope *core.Page
		if pageScope != "" {
			var err error
			if scope, err = resolvePage(tx, pageScope); err != nil || scope == nil {
				return err
			}
		}

		pages := newPageCache(tx)
		return scanIndexedBlocks(ctx, tx, makePartialBlockTagKey(tag), func(block *core.Block) error {
			if scope != nil && block.PageId != scope.Id {
				return nil
			}
			page, err := pages.get(block.PageId)
			if err != nil {
				return err
			}
			matches = append(matches, blockMatch(block, page))
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	e.backend.logger.Debug("tag query", "tag", tag, "page", pageScope, "matches", len(matches))
	return success(matches), nil
}

// DeclarativeQuery evaluates a query in the query package's language. Each
// distinct row becomes one match whose content is the row as a JSON array.
// Malformed or unsupported queries produce an unsuccessful result.
func (e *Executor) DeclarativeQuery(ctx context.Context, src string, inputs []any) (*core.SearchResult, error) {
	if inputs == nil {
		inputs = []any{}
	}
	rows, err := query.Run(ctx, e, src, inputs)
	if err != nil {
		if errors.Is(err, query.ErrParse) || errors.Is(err, query.ErrUnsupported) || errors.Is(err, query.ErrInputs) {
			e.backend.logger.Debug("rejected declarative query", "err", err)
			return &core.SearchResult{Success: false, Matches: []core.SearchMatch{}, Message: err.Error()}, nil
		}
		return nil, err
	}

	matches := make([]core.SearchMatch, 0, len(rows))
	for _, row := range rows {
		content, err := marshalRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		matches = append(matches, core.SearchMatch{
			BlockUID: core.UIDFromContent(content),
			Content:  content,
		})
	}
	return success(matches), nil
}

// marshalRow encodes a row as compact JSON, leaving <, > and & unescaped so
// patterns see the stored text.
func marshalRow(row []any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(row); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// scanScoped visits blocks with their pages, restricted to the page named by
// pageScope when it is set. An unknown page visits nothing.
func (e *Executor) scanScoped(ctx context.Context, tx *badger.Txn, pageScope string, fn func(*core.Block, *core.Page)) error {
	if pageScope != "" {
		page, err := resolvePage(tx, pageScope)
		if err != nil || page == nil {
			return err
		}
		return scanIndexedBlocks(ctx, tx, makePartialBlockPageKey(page.Id), func(block *core.Block) error {
			fn(block, page)
			return nil
		})
	}

	pages := newPageCache(tx)
	return scanBlocks(ctx, tx, func(block *core.Block) error {
		page, err := pages.get(block.PageId)
		if err != nil {
			return err
		}
		fn(block, page)
		return nil
	})
}

// resolvePage finds a page by title, falling back to uid.
func resolvePage(tx *badger.Txn, titleOrUID string) (*core.Page, error) {
	page, err := readIndexedPage(tx, makePageTitleKey(titleOrUID))
	if err != nil || page != nil {
		return page, err
	}
	return readIndexedPage(tx, makePageUIDKey(core.UID(titleOrUID)))
}

type pageCache struct {
	tx    *badger.Txn
	pages map[core.ID]*core.Page
}

func newPageCache(tx *badger.Txn) *pageCache {
	return &pageCache{tx: tx, pages: make(map[core.ID]*core.Page)}
}

func (c *pageCache) get(id core.ID) (*core.Page, error) {
	if page, ok := c.pages[id]; ok {
		return page, nil
	}
	page, err := readPage(c.tx, makePageKey(id))
	if err != nil {
		return nil, err
	}
	c.pages[id] = page
	return page, nil
}

func blockMatch(block *core.Block, page *core.Page) core.SearchMatch {
	m := core.SearchMatch{
		BlockUID: block.UID,
		Content:  block.Content,
		Created:  core.UnixMilli(block.CreatedAt),
		Modified: core.UnixMilli(block.UpdatedAt),
		Tags:     block.Tags,
	}
	if page != nil {
		m.PageTitle = page.Title
	}
	return m
}

func pageMatch(page *core.Page) core.SearchMatch {
	return core.SearchMatch{
		BlockUID:  page.UID,
		Content:   page.Title,
		PageTitle: page.Title,
		Created:   core.UnixMilli(page.CreatedAt),
		Modified:  core.UnixMilli(page.UpdatedAt),
	}
}

func success(matches []core.SearchMatch) *core.SearchResult {
	if matches == nil {
		matches = []core.SearchMatch{}
	}
	return &core.SearchResult{Success: true, Matches: matches}
}
