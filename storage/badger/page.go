package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/storage"
)

// PageRepository implements storage.PageRepository for BadgerDB.
type PageRepository struct {
	backend *Backend
}

var _ storage.PageRepository = (*PageRepository)(nil)

// NewPageRepository creates a new PageRepository.
func NewPageRepository(backend *Backend) (*PageRepository, error) {
	return &PageRepository{
		backend: backend,
	}, nil
}

// Close releases resources. PageRepository has no resources to release.
func (r *PageRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *PageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddPages adds one or more pages to storage.
func (r *PageRepository) AddPages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, page := range pages {
			if err := core.ValidatePage(page); err != nil {
				return err
			}
			if err := ensureAbsent(tx, makePageUIDKey(page.UID)); err != nil {
				return fmt.Errorf("page uid %q: %w", page.UID, err)
			}
			if err := ensureAbsent(tx, makePageTitleKey(page.Title)); err != nil {
				return fmt.Errorf("page title %q: %w", page.Title, err)
			}

			id, err := r.backend.nextID()
			if err != nil {
				return err
			}
			page.Id = id

			// Set timestamps
			if page.CreatedAt.IsZero() {
				page.CreatedAt = time.Now().UTC()
			}
			if page.UpdatedAt.IsZero() {
				page.UpdatedAt = page.CreatedAt
			}

			if err := writePage(tx, page); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// UpdatePages updates existing pages.
func (r *PageRepository) UpdatePages(ctx context.Context, pages ...*core.Page) ([]*core.Page, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, page := range pages {
			if err := core.ValidatePage(page); err != nil {
				return err
			}
			old, err := readPage(tx, makePageKey(page.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("page %d: %w", page.Id, storage.ErrNotFound)
			}

			// Update indexes if uid or title changed
			if old.UID != page.UID {
				if err := ensureAbsent(tx, makePageUIDKey(page.UID)); err != nil {
					return fmt.Errorf("page uid %q: %w", page.UID, err)
				}
				if err := tx.Delete(makePageUIDKey(old.UID)); err != nil {
					return err
				}
			}
			if old.Title != page.Title {
				if err := ensureAbsent(tx, makePageTitleKey(page.Title)); err != nil {
					return fmt.Errorf("page title %q: %w", page.Title, err)
				}
				if err := tx.Delete(makePageTitleKey(old.Title)); err != nil {
					return err
				}
			}

			if page.CreatedAt.IsZero() {
				page.CreatedAt = old.CreatedAt
			}
			page.UpdatedAt = time.Now().UTC()
			if err := writePage(tx, page); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// DeletePages removes pages by their IDs.
func (r *PageRepository) DeletePages(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makePageKey(id)

			// Read page to get metadata for index cleanup
			page, err := readPage(tx, key)
			if err != nil {
				return err
			}
			if page == nil {
				return fmt.Errorf("page %d: %w", id, storage.ErrNotFound)
			}

			for _, k := range [][]byte{makePageUIDKey(page.UID), makePageTitleKey(page.Title), key} {
				if err := tx.Delete(k); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetPage retrieves a single page by ID.
func (r *PageRepository) GetPage(ctx context.Context, id core.ID) (*core.Page, error) {
	var result *core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPage(tx, makePageKey(id))
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

// GetPageByUID retrieves a page by UID.
func (r *PageRepository) GetPageByUID(ctx context.Context, uid core.UID) (*core.Page, error) {
	return r.getIndexed(makePageUIDKey(uid))
}

// GetPageByTitle retrieves a page by its exact title.
func (r *PageRepository) GetPageByTitle(ctx context.Context, title string) (*core.Page, error) {
	return r.getIndexed(makePageTitleKey(title))
}

func (r *PageRepository) getIndexed(indexKey []byte) (*core.Page, error) {
	var result *core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readIndexedPage(tx, indexKey)
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

// FindPagesByTitlePrefix returns pages whose title starts with prefix, in title order.
func (r *PageRepository) FindPagesByTitlePrefix(ctx context.Context, prefix string) ([]*core.Page, error) {
	var results []*core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = scanPagesByTitle(ctx, tx, prefix)
		return err
	}, false)
	return results, err
}

// ListPages retrieves all pages in ID order.
func (r *PageRepository) ListPages(ctx context.Context) ([]*core.Page, error) {
	var results []*core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPages(ctx, tx, func(page *core.Page) error {
			results = append(results, page)
			return nil
		})
	}, false)
	return results, err
}

// Helper methods

// writePage stores a page record and its uid and title indexes.
func writePage(tx *badger.Txn, page *core.Page) error {
	id := storage.MarshalID(page.Id)
	if err := tx.Set(makePageKey(page.Id), storage.MarshalPage(page)); err != nil {
		return err
	}
	if err := tx.Set(makePageUIDKey(page.UID), id); err != nil {
		return err
	}
	return tx.Set(makePageTitleKey(page.Title), id)
}

// readPage reads a page from the transaction. A missing page is (nil, nil).
func readPage(tx *badger.Txn, key []byte) (*core.Page, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var page *core.Page
	err = item.Value(func(val []byte) error {
		var err error
		page, err = storage.UnmarshalPage(val)
		return err
	})
	return page, err
}

// readIndexedPage follows a uid or title index entry to its page.
func readIndexedPage(tx *badger.Txn, indexKey []byte) (*core.Page, error) {
	id, ok, err := readID(tx, indexKey)
	if err != nil || !ok {
		return nil, err
	}
	return readPage(tx, makePageKey(id))
}

// scanPages calls fn for every page in ID order.
func scanPages(ctx context.Context, tx *badger.Txn, fn func(*core.Page) error) error {
	prefix := []byte(pagePrefix)
	return scanPrefix(ctx, tx, prefix, true, func(item *badger.Item) error {
		return item.Value(func(val []byte) error {
			page, err := storage.UnmarshalPage(val)
			if err != nil {
				return err
			}
			return fn(page)
		})
	})
}

// scanPagesByTitle returns pages whose title starts with prefix.
func scanPagesByTitle(ctx context.Context, tx *badger.Txn, prefix string) ([]*core.Page, error) {
	var results []*core.Page
	err := scanPrefix(ctx, tx, makePageTitleKey(prefix), true, func(item *badger.Item) error {
		var id core.ID
		err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}
		page, err := readPage(tx, makePageKey(id))
		if err != nil {
			return err
		}
		if page != nil {
			results = append(results, page)
		}
		return nil
	})
	return results, err
}

// readID reads an id stored under an index key.
func readID(tx *badger.Txn, key []byte) (core.ID, bool, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	var id core.ID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	return id, err == nil, err
}

// ensureAbsent fails with storage.ErrDuplicateKey when key exists.
func ensureAbsent(tx *badger.Txn, key []byte) error {
	_, err := tx.Get(key)
	switch {
	case err == nil:
		return storage.ErrDuplicateKey
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil
	}
	return err
}

// scanPrefix calls fn for every item under prefix in key order, checking ctx
// between items.
func scanPrefix(ctx context.Context, tx *badger.Txn, prefix []byte, values bool, fn func(*badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = values
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := iter.Item()
		if !bytes.HasPrefix(item.Key(), prefix) {
			break
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}
