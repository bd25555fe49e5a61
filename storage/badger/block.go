package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/storage"
)

// BlockRepository implements storage.BlockRepository for BadgerDB.
type BlockRepository struct {
	backend *Backend
}

var _ storage.BlockRepository = (*BlockRepository)(nil)

// NewBlockRepository creates a new BlockRepository.
func NewBlockRepository(backend *Backend) (*BlockRepository, error) {
	return &BlockRepository{
		backend: backend,
	}, nil
}

// Close releases resources. BlockRepository has no resources to release.
func (r *BlockRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *BlockRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddBlocks adds one or more blocks to storage.
// The owning page must exist.
func (r *BlockRepository) AddBlocks(ctx context.Context, blocks ...*core.Block) ([]*core.Block, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, block := range blocks {
			if err := core.ValidateBlock(block); err != nil {
				return err
			}
			page, err := readPage(tx, makePageKey(block.PageId))
			if err != nil {
				return err
			}
			if page == nil {
				return fmt.Errorf("page %d of block %q: %w", block.PageId, block.UID, storage.ErrNotFound)
			}
			if err := ensureAbsent(tx, makeBlockUIDKey(block.UID)); err != nil {
				return fmt.Errorf("block uid %q: %w", block.UID, err)
			}

			id, err := r.backend.nextID()
			if err != nil {
				return err
			}
			block.Id = id

			// Set timestamps
			if block.CreatedAt.IsZero() {
				block.CreatedAt = time.Now().UTC()
			}
			if block.UpdatedAt.IsZero() {
				block.UpdatedAt = block.CreatedAt
			}

			if err := tx.Set(makeBlockKey(id), storage.MarshalBlock(block)); err != nil {
				return err
			}
			if err := tx.Set(makeBlockUIDKey(block.UID), storage.MarshalID(id)); err != nil {
				return err
			}
			if err := tx.Set(makeBlockPageKey(block.PageId, id), nil); err != nil {
				return err
			}
			for _, tag := range block.Tags {
				if err := tx.Set(makeBlockTagKey(tag, id), nil); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// UpdateBlocks rewrites existing blocks and their uid and tag indexes.
// A zero UpdatedAt is set to the current time; other timestamps are kept as given.
func (r *BlockRepository) UpdateBlocks(ctx context.Context, blocks ...*core.Block) ([]*core.Block, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, block := range blocks {
			if err := core.ValidateBlock(block); err != nil {
				return err
			}
			old, err := readBlock(tx, makeBlockKey(block.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("block %d: %w", block.Id, storage.ErrNotFound)
			}
			if old.PageId != block.PageId {
				return fmt.Errorf("block %q: %w: blocks cannot move between pages", block.UID, storage.ErrInvalidQuery)
			}

			if old.UID != block.UID {
				if err := ensureAbsent(tx, makeBlockUIDKey(block.UID)); err != nil {
					return fmt.Errorf("block uid %q: %w", block.UID, err)
				}
				if err := tx.Delete(makeBlockUIDKey(old.UID)); err != nil {
					return err
				}
				if err := tx.Set(makeBlockUIDKey(block.UID), storage.MarshalID(block.Id)); err != nil {
					return err
				}
			}
			for _, tag := range old.Tags {
				if err := tx.Delete(makeBlockTagKey(tag, block.Id)); err != nil {
					return err
				}
			}
			for _, tag := range block.Tags {
				if err := tx.Set(makeBlockTagKey(tag, block.Id), nil); err != nil {
					return err
				}
			}

			if block.CreatedAt.IsZero() {
				block.CreatedAt = old.CreatedAt
			}
			if block.UpdatedAt.IsZero() {
				block.UpdatedAt = time.Now().UTC()
			}
			if err := tx.Set(makeBlockKey(block.Id), storage.MarshalBlock(block)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// DeleteBlocks removes blocks by their IDs.
func (r *BlockRepository) DeleteBlocks(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeBlockKey(id)

			// Read block to get metadata for index cleanup
			block, err := readBlock(tx, key)
			if err != nil {
				return err
			}
			if block == nil {
				return fmt.Errorf("block %d: %w", id, storage.ErrNotFound)
			}

			keys := [][]byte{makeBlockUIDKey(block.UID), makeBlockPageKey(block.PageId, id), key}
			for _, tag := range block.Tags {
				keys = append(keys, makeBlockTagKey(tag, id))
			}
			for _, k := range keys {
				if err := tx.Delete(k); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetBlock retrieves a single block by ID.
func (r *BlockRepository) GetBlock(ctx context.Context, id core.ID) (*core.Block, error) {
	var result *core.Block
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readBlock(tx, makeBlockKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetBlockByUID retrieves a block by UID.
func (r *BlockRepository) GetBlockByUID(ctx context.Context, uid core.UID) (*core.Block, error) {
	var result *core.Block
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, ok, err := readID(tx, makeBlockUIDKey(uid))
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		result, err = readBlock(tx, makeBlockKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetBlocksByPage retrieves the blocks of a page in insertion order.
func (r *BlockRepository) GetBlocksByPage(ctx context.Context, pageID core.ID) ([]*core.Block, error) {
	var results []*core.Block
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanIndexedBlocks(ctx, tx, makePartialBlockPageKey(pageID), func(block *core.Block) error {
			results = append(results, block)
			return nil
		})
	}, false)
	return results, err
}

// GetBlocksByTag retrieves blocks tagged with tag in insertion order.
func (r *BlockRepository) GetBlocksByTag(ctx context.Context, tag string) ([]*core.Block, error) {
	var results []*core.Block
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanIndexedBlocks(ctx, tx, makePartialBlockTagKey(tag), func(block *core.Block) error {
			results = append(results, block)
			return nil
		})
	}, false)
	return results, err
}

// ForEachBlock calls fn for every block in ID order.
func (r *BlockRepository) ForEachBlock(ctx context.Context, fn func(*core.Block) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanBlocks(ctx, tx, fn)
	}, false)
}

// Helper methods

// readBlock reads a block from the transaction. A missing block is (nil, nil).
func readBlock(tx *badger.Txn, key []byte) (*core.Block, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var block *core.Block
	err = item.Value(func(val []byte) error {
		var err error
		block, err = storage.UnmarshalBlock(val)
		return err
	})
	return block, err
}

// scanBlocks calls fn for every block in ID order.
func scanBlocks(ctx context.Context, tx *badger.Txn, fn func(*core.Block) error) error {
	return scanPrefix(ctx, tx, []byte(blockPrefix), true, func(item *badger.Item) error {
		return item.Value(func(val []byte) error {
			block, err := storage.UnmarshalBlock(val)
			if err != nil {
				return err
			}
			return fn(block)
		})
	})
}

// scanIndexedBlocks follows index keys ending in a block id to their blocks.
func scanIndexedBlocks(ctx context.Context, tx *badger.Txn, prefix []byte, fn func(*core.Block) error) error {
	return scanPrefix(ctx, tx, prefix, false, func(item *badger.Item) error {
		block, err := readBlock(tx, makeBlockKey(idSuffix(item.Key())))
		if err != nil {
			return err
		}
		if block == nil {
			return nil
		}
		return fn(block)
	})
}
