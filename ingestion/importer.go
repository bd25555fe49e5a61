package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/storage"
	"github.com/poiesic/graphsearch/tags"
)

// blockBatchSize bounds the number of blocks written per transaction.
const blockBatchSize = 256

// Stats summarizes an import.
type Stats struct {
	Pages    int // pages written
	Replaced int // pages that already existed and had their blocks replaced
	Blocks   int // blocks written
	Failed   int // pages that could not be imported
}

// Importer writes graph exports to page and block repositories.
type Importer struct {
	pages          storage.PageRepository
	blocks         storage.BlockRepository
	pool           *ants.Pool
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets the worker pool size for concurrent page imports.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if im.pool != nil {
			im.pool.Release()
		}
		im.pool = pool
		return nil
	}
}

// WithProgress reports progress to w every interval pages.
func WithProgress(w io.Writer, interval int) Option {
	return func(im *Importer) error {
		im.progress = w
		im.reportInterval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		im.logger = logger
		return nil
	}
}

// NewImporter creates a new importer.
func NewImporter(pages storage.PageRepository, blocks storage.BlockRepository, opts ...Option) (*Importer, error) {
	if pages == nil {
		return nil, ErrPageRepositoryRequired
	}
	if blocks == nil {
		return nil, ErrBlockRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	im := &Importer{
		pages:  pages,
		blocks: blocks,
		pool:   pool,
		logger: slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(im); err != nil {
			im.Release()
			return nil, err
		}
	}
	return im, nil
}

// Release releases the worker pool.
// The importer should not be used after calling Release.
func (im *Importer) Release() {
	if im.pool != nil {
		im.pool.Release()
	}
}

// Import decodes an export from r and imports it.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Stats, error) {
	pages, err := Decode(r)
	if err != nil {
		return Stats{}, err
	}
	return im.ImportPages(ctx, pages)
}

// ImportPages imports pages concurrently. A failing page does not stop the
// others; the returned error wraps ErrImportFailed and every page failure.
func (im *Importer) ImportPages(ctx context.Context, pages []ExportPage) (Stats, error) {
	var (
		stats Stats
		errs  []error
		mu    sync.Mutex
		wg    sync.WaitGroup
	)

	var tracker *ProgressTracker
	if im.progress != nil {
		tracker = NewProgressTracker(im.progress, len(pages), im.reportInterval)
		tracker.Start()
		defer tracker.Finish()
	}

	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := im.pool.Submit(func() {
			defer wg.Done()
			blocks, replaced, err := im.importPage(ctx, page)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				im.logger.Error("error importing page", "title", page.Title, "err", err)
				stats.Failed++
				errs = append(errs, fmt.Errorf("page %q: %w", page.Title, err))
			} else {
				stats.Pages++
				stats.Blocks += blocks
				if replaced {
					stats.Replaced++
				}
			}
			if tracker != nil {
				tracker.Increment(1)
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			stats.Failed++
			errs = append(errs, fmt.Errorf("page %q: %w", page.Title, err))
			mu.Unlock()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if len(errs) > 0 {
		return stats, fmt.Errorf("%w: %d of %d pages: %w", ErrImportFailed, len(errs), len(pages), errors.Join(errs...))
	}
	im.logger.Info("import finished", "pages", stats.Pages, "replaced", stats.Replaced, "blocks", stats.Blocks)
	return stats, nil
}

// importPage writes one page and its blocks, replacing the blocks of an
// existing page with the same uid.
func (im *Importer) importPage(ctx context.Context, ep ExportPage) (int, bool, error) {
	if ep.Title == "" {
		return 0, false, fmt.Errorf("%w: %w", core.ErrInvalidPage, core.ErrEmptyTitle)
	}
	uid := core.UID(ep.UID)
	if uid == "" {
		uid = core.UIDFromContent(ep.Title)
	}
	page := &core.Page{
		UID:       uid,
		Title:     ep.Title,
		CreatedAt: core.FromUnixMilli(ep.CreateTime),
		UpdatedAt: core.FromUnixMilli(ep.EditTime),
	}

	replaced := false
	existing, err := im.pages.GetPageByUID(ctx, uid)
	switch {
	case err == nil:
		replaced = true
		page.Id = existing.Id
		if err := im.clearBlocks(ctx, existing.Id); err != nil {
			return 0, false, err
		}
		if _, err := im.pages.UpdatePages(ctx, page); err != nil {
			return 0, false, err
		}
	case errors.Is(err, storage.ErrNotFound):
		if _, err := im.pages.AddPages(ctx, page); err != nil {
			return 0, false, err
		}
	default:
		return 0, false, err
	}

	blocks := flatten(page, ep.Children)
	for start := 0; start < len(blocks); start += blockBatchSize {
		end := min(start+blockBatchSize, len(blocks))
		if _, err := im.blocks.AddBlocks(ctx, blocks[start:end]...); err != nil {
			return start, replaced, err
		}
	}
	return len(blocks), replaced, nil
}

func (im *Importer) clearBlocks(ctx context.Context, pageID core.ID) error {
	old, err := im.blocks.GetBlocksByPage(ctx, pageID)
	if err != nil {
		return err
	}
	ids := make([]core.ID, len(old))
	for i, b := range old {
		ids[i] = b.Id
	}
	for start := 0; start < len(ids); start += blockBatchSize {
		end := min(start+blockBatchSize, len(ids))
		if err := im.blocks.DeleteBlocks(ctx, ids[start:end]...); err != nil {
			return err
		}
	}
	return nil
}

// flatten converts a block tree to store blocks in depth-first order.
func flatten(page *core.Page, children []ExportBlock) []*core.Block {
	var out []*core.Block
	var walk func(parent core.UID, path string, children []ExportBlock)
	walk = func(parent core.UID, path string, children []ExportBlock) {
		for i, eb := range children {
			childPath := fmt.Sprintf("%s/%d", path, i)
			uid := core.UID(eb.UID)
			if uid == "" {
				uid = core.UIDFromContent(string(page.UID) + childPath + "\x00" + eb.String)
			}
			out = append(out, &core.Block{
				UID:       uid,
				PageId:    page.Id,
				ParentUID: parent,
				Order:     i,
				Content:   eb.String,
				Tags:      tags.Extract(eb.String),
				Props:     props(eb.Extra),
				CreatedAt: core.FromUnixMilli(eb.CreateTime),
				UpdatedAt: core.FromUnixMilli(eb.EditTime),
			})
			walk(uid, childPath, eb.Children)
		}
	}
	walk("", "", children)
	return out
}

// props stringifies unmodelled export keys.
func props(extra map[string]any) map[string]string {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		switch v := v.(type) {
		case string:
			out[k] = v
		case float64:
			out[k] = fmt.Sprintf("%g", v)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
