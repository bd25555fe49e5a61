package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/query"
)

// Datoms serves the attributes of the declarative query language. Pages and
// blocks share an id space, so entity ids are the stored ids. Unknown
// attributes have no datoms.
func (e *Executor) Datoms(ctx context.Context, attr string) ([]query.Datom, error) {
	var datoms []query.Datom
	add := func(id core.ID, v any) {
		datoms = append(datoms, query.Datom{E: query.EntityID(id), A: attr, V: v})
	}

	err := e.backend.WithTx(func(tx *badger.Txn) error {
		switch attr {
		case query.AttrNodeTitle:
			return scanPages(ctx, tx, func(p *core.Page) error {
				add(p.Id, p.Title)
				return nil
			})

		case query.AttrBlockUID, query.AttrCreateTime, query.AttrEditTime:
			value := func(uid core.UID, created, edited int64) any {
				switch attr {
				case query.AttrBlockUID:
					return string(uid)
				case query.AttrCreateTime:
					return created
				}
				return edited
			}
			err := scanPages(ctx, tx, func(p *core.Page) error {
				if v := value(p.UID, core.UnixMilli(p.CreatedAt), core.UnixMilli(p.UpdatedAt)); v != int64(0) {
					add(p.Id, v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return scanBlocks(ctx, tx, func(b *core.Block) error {
				if v := value(b.UID, core.UnixMilli(b.CreatedAt), core.UnixMilli(b.UpdatedAt)); v != int64(0) {
					add(b.Id, v)
				}
				return nil
			})

		case query.AttrBlockString:
			return scanBlocks(ctx, tx, func(b *core.Block) error {
				add(b.Id, b.Content)
				return nil
			})

		case query.AttrBlockPage:
			return scanBlocks(ctx, tx, func(b *core.Block) error {
				add(b.Id, query.EntityID(b.PageId))
				return nil
			})

		case query.AttrBlockOrder:
			return scanBlocks(ctx, tx, func(b *core.Block) error {
				add(b.Id, int64(b.Order))
				return nil
			})

		case query.AttrBlockRefs:
			return scanBlocks(ctx, tx, func(b *core.Block) error {
				for _, tag := range b.Tags {
					id, ok, err := readID(tx, makePageTitleKey(tag))
					if err != nil {
						return err
					}
					if ok {
						add(b.Id, query.EntityID(id))
					}
				}
				return nil
			})

		case query.AttrBlockChildren, query.AttrBlockParents:
			links, err := blockLinks(ctx, tx)
			if err != nil {
				return err
			}
			for _, l := range links {
				if attr == query.AttrBlockChildren {
					add(l.parent, query.EntityID(l.child))
					continue
				}
				for _, ancestor := range l.ancestors {
					add(l.child, query.EntityID(ancestor))
				}
			}
		}
		return nil
	}, false)
	return datoms, err
}

type blockLink struct {
	child     core.ID
	parent    core.ID   // direct parent block, or the page for top-level blocks
	ancestors []core.ID // every enclosing block and the page, nearest first
}

func blockLinks(ctx context.Context, tx *badger.Txn) ([]blockLink, error) {
	type node struct {
		id     core.ID
		page   core.ID
		parent core.UID
	}
	var nodes []node
	byUID := make(map[core.UID]int)
	err := scanBlocks(ctx, tx, func(b *core.Block) error {
		byUID[b.UID] = len(nodes)
		nodes = append(nodes, node{id: b.Id, page: b.PageId, parent: b.ParentUID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	links := make([]blockLink, 0, len(nodes))
	for _, n := range nodes {
		link := blockLink{child: n.id, parent: n.page}
		seen := map[core.ID]bool{n.id: true}
		for cur := n; cur.parent != ""; {
			i, ok := byUID[cur.parent]
			if !ok || seen[nodes[i].id] {
				break
			}
			cur = nodes[i]
			seen[cur.id] = true
			if len(link.ancestors) == 0 {
				link.parent = cur.id
			}
			link.ancestors = append(link.ancestors, cur.id)
		}
		link.ancestors = append(link.ancestors, n.page)
		links = append(links, link)
	}
	return links, nil
}
