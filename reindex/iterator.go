package reindex

import (
	"context"

	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/storage"
)

// DefaultBatchSize is the default number of blocks handed to fn at once.
const DefaultBatchSize = 256

// BlockIterator walks every stored block in batches.
type BlockIterator struct {
	repo      storage.BlockRepository
	batchSize int
}

// NewBlockIterator creates a block iterator. A non-positive batchSize selects
// DefaultBatchSize.
func NewBlockIterator(repo storage.BlockRepository, batchSize int) *BlockIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BlockIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// Collect reads every block in ID order.
func (it *BlockIterator) Collect(ctx context.Context) ([]*core.Block, error) {
	var blocks []*core.Block
	err := it.repo.ForEachBlock(ctx, func(b *core.Block) error {
		blocks = append(blocks, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// batch calls fn with consecutive batches of blocks, stopping on the first
// error from fn or when ctx is done.
func (it *BlockIterator) batch(ctx context.Context, blocks []*core.Block, fn func([]*core.Block) error) error {
	for start := 0; start < len(blocks); start += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+it.batchSize, len(blocks))
		if err := fn(blocks[start:end]); err != nil {
			return err
		}
	}
	return nil
}
