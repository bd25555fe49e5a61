package storage

import (
	"context"

	"github.com/poiesic/graphsearch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// PageRepository provides operations for managing pages.
type PageRepository interface {
	Repository
	// AddPages adds one or more pages to storage.
	// Generates a new ID for every page and sets CreatedAt/UpdatedAt if not already set.
	// Returns ErrDuplicateKey if a page with the same UID or title already exists.
	AddPages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error)

	// UpdatePages updates existing pages, keeping the title and uid indexes in step.
	// Returns ErrNotFound if any page doesn't exist.
	UpdatePages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error)

	// DeletePages removes pages and their indexes by ID. Blocks are not removed.
	// Returns ErrNotFound if any page doesn't exist.
	DeletePages(ctx context.Context, ids ...core.ID) error

	// GetPage retrieves a page by ID.
	// Returns ErrNotFound if the page doesn't exist.
	GetPage(ctx context.Context, id core.ID) (*core.Page, error)

	// GetPageByUID retrieves a page by UID.
	// Returns ErrNotFound if the page doesn't exist.
	GetPageByUID(ctx context.Context, uid core.UID) (*core.Page, error)

	// GetPageByTitle retrieves a page by its exact title.
	// Returns ErrNotFound if the page doesn't exist.
	GetPageByTitle(ctx context.Context, title string) (*core.Page, error)

	// FindPagesByTitlePrefix returns pages whose title starts with prefix,
	// ordered by title. Matching is case-sensitive.
	FindPagesByTitlePrefix(ctx context.Context, prefix string) ([]*core.Page, error)

	// ListPages returns every page ordered by ID.
	ListPages(ctx context.Context) ([]*core.Page, error)
}

// BlockRepository provides operations for managing blocks.
type BlockRepository interface {
	Repository
	// AddBlocks adds one or more blocks to storage.
	// Generates a new ID for every block and sets CreatedAt/UpdatedAt if not already set.
	// Returns ErrDuplicateKey if a block with the same UID already exists.
	AddBlocks(ctx context.Context, blocks ...*core.Block) ([]*core.Block, error)

	// UpdateBlocks rewrites existing blocks, keeping their uid and tag indexes current.
	// Returns ErrNotFound if any block doesn't exist.
	UpdateBlocks(ctx context.Context, blocks ...*core.Block) ([]*core.Block, error)

	// DeleteBlocks removes blocks and their indexes by ID.
	// Returns ErrNotFound if any block doesn't exist.
	DeleteBlocks(ctx context.Context, ids ...core.ID) error

	// GetBlock retrieves a block by ID.
	// Returns ErrNotFound if the block doesn't exist.
	GetBlock(ctx context.Context, id core.ID) (*core.Block, error)

	// GetBlockByUID retrieves a block by UID.
	// Returns ErrNotFound if the block doesn't exist.
	GetBlockByUID(ctx context.Context, uid core.UID) (*core.Block, error)

	// GetBlocksByPage returns the blocks of a page in insertion order.
	GetBlocksByPage(ctx context.Context, pageID core.ID) ([]*core.Block, error)

	// GetBlocksByTag returns blocks whose extracted tags include tag, in insertion order.
	GetBlocksByTag(ctx context.Context, tag string) ([]*core.Block, error)

	// ForEachBlock calls fn for every block in ID order. Iteration stops at the first error.
	ForEachBlock(ctx context.Context, fn func(*core.Block) error) error
}
