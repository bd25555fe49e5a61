package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/storage"
	"github.com/stretchr/testify/require"
)

type testGraph struct {
	pages   storage.PageRepository
	blocks  storage.BlockRepository
	backend *Backend
	byUID   map[core.UID]core.ID
}

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestGraph stores a small graph:
//
//	Inbox
//	  in1 "Weekly Meeting notes #TODO"
//	    in2 "follow up with [[Bob]] #TODO #urgent"
//	  in3 "Lunch"
//	Bob
//	  bob1 "met at the meeting #[[Project X]]"
//	Convention/Naming, Convention/Layout, Conventional wisdom (no blocks)
func newTestGraph(t *testing.T) *testGraph {
	t.Helper()
	pages, blocks, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	g := &testGraph{pages: pages, blocks: blocks, backend: backend, byUID: make(map[core.UID]core.ID)}
	ctx := context.Background()

	added, err := pages.AddPages(ctx,
		&core.Page{UID: "inbox", Title: "Inbox", CreatedAt: baseTime},
		&core.Page{UID: "bob", Title: "Bob", CreatedAt: baseTime},
		&core.Page{UID: "cn", Title: "Convention/Naming", CreatedAt: baseTime},
		&core.Page{UID: "cl", Title: "Convention/Layout", CreatedAt: baseTime},
		&core.Page{UID: "cw", Title: "Conventional wisdom", CreatedAt: baseTime},
	)
	require.NoError(t, err)
	for _, p := range added {
		g.byUID[p.UID] = p.Id
	}

	block := func(uid, page, parent, content string, order int, tags ...string) *core.Block {
		return &core.Block{
			UID:       core.UID(uid),
			PageId:    g.byUID[core.UID(page)],
			ParentUID: core.UID(parent),
			Order:     order,
			Content:   content,
			Tags:      tags,
			CreatedAt: baseTime.Add(time.Duration(order) * time.Minute),
		}
	}
	addedBlocks, err := blocks.AddBlocks(ctx,
		block("in1", "inbox", "", "Weekly Meeting notes #TODO", 0, "TODO"),
		block("in2", "inbox", "in1", "follow up with [[Bob]] #TODO #urgent", 0, "Bob", "TODO", "urgent"),
		block("in3", "inbox", "", "Lunch", 1),
		block("bob1", "bob", "", "met at the meeting #[[Project X]]", 0, "Project X"),
	)
	require.NoError(t, err)
	for _, b := range addedBlocks {
		g.byUID[b.UID] = b.Id
	}
	return g
}

func uidsOf(matches []core.SearchMatch) []core.UID {
	out := make([]core.UID, len(matches))
	for i, m := range matches {
		out[i] = m.BlockUID
	}
	return out
}
