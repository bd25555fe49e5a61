package reindex

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/storage"
	graphbadger "github.com/poiesic/graphsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBlocks stores one page with blocks whose stored tags are stale.
func setupBlocks(t *testing.T) storage.BlockRepository {
	t.Helper()
	pages, blocks, backend, err := graphbadger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ctx := context.Background()
	added, err := pages.AddPages(ctx, &core.Page{UID: "inbox", Title: "Inbox"})
	require.NoError(t, err)
	pageID := added[0].Id

	_, err = blocks.AddBlocks(ctx,
		&core.Block{UID: "b1", PageId: pageID, Content: "ship it #release", Tags: []string{"old"}},
		&core.Block{UID: "b2", PageId: pageID, Content: "call [[Bob]]", Tags: []string{"Bob"}},
		&core.Block{UID: "b3", PageId: pageID, Content: "plain text", Tags: []string{"old"}},
		&core.Block{UID: "b4", PageId: pageID, Content: "no tags"},
	)
	require.NoError(t, err)
	return blocks
}

func TestReindexer_Run(t *testing.T) {
	repo := setupBlocks(t)
	ctx := context.Background()

	before, err := repo.GetBlockByUID(ctx, "b1")
	require.NoError(t, err)

	var buf bytes.Buffer
	config := &Config{BatchSize: 3, ReportInterval: 1, MaxRetries: 3, RetryDelay: time.Millisecond}
	r, err := NewReindexer(repo, config, &buf)
	require.NoError(t, err)

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Blocks: 4, Changed: 2}, stats)

	old, err := repo.GetBlocksByTag(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, old)

	release, err := repo.GetBlocksByTag(ctx, "release")
	require.NoError(t, err)
	require.Len(t, release, 1)
	assert.Equal(t, core.UID("b1"), release[0].UID)
	assert.Equal(t, []string{"release"}, release[0].Tags)
	assert.Equal(t, before.UpdatedAt, release[0].UpdatedAt, "reindexing is not an edit")

	plain, err := repo.GetBlockByUID(ctx, "b3")
	require.NoError(t, err)
	assert.Empty(t, plain.Tags)

	output := buf.String()
	assert.Contains(t, output, "Starting reindex of 4 blocks (batch size: 3)")
	assert.Contains(t, output, "4/4 blocks")
	assert.Contains(t, output, "Rewrote 2 of 4 blocks")
}

func TestReindexer_Idempotent(t *testing.T) {
	repo := setupBlocks(t)
	ctx := context.Background()

	r, err := NewReindexer(repo, nil, nil)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	require.NoError(t, err)
	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Changed)
}

func TestReindexer_EmptyDatabase(t *testing.T) {
	_, blocks, backend, err := graphbadger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	var buf bytes.Buffer
	r, err := NewReindexer(blocks, DefaultConfig(), &buf)
	require.NoError(t, err)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Contains(t, buf.String(), "No blocks found")
}

func TestReindexer_ContextCanceled(t *testing.T) {
	repo := setupBlocks(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewReindexer(repo, nil, nil)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReindexer_Validation(t *testing.T) {
	_, err := NewReindexer(nil, nil, nil)
	assert.ErrorIs(t, err, ErrBlockRepositoryRequired)

	repo := setupBlocks(t)
	_, err = NewReindexer(repo, &Config{MaxRetries: 0}, nil)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

// conflictingRepo reports a transaction conflict for its first failures updates.
type conflictingRepo struct {
	storage.BlockRepository
	failures int
	calls    int
}

func (r *conflictingRepo) UpdateBlocks(ctx context.Context, blocks ...*core.Block) ([]*core.Block, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, badger.ErrConflict
	}
	return r.BlockRepository.UpdateBlocks(ctx, blocks...)
}

func TestTagProcessor_RetriesConflicts(t *testing.T) {
	ctx := context.Background()
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: IsConflict}

	tests := []struct {
		name     string
		failures int
		wantErr  bool
		calls    int
	}{
		{name: "recovers", failures: 2, calls: 3},
		{name: "gives up", failures: 3, wantErr: true, calls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &conflictingRepo{BlockRepository: setupBlocks(t), failures: tt.failures}
			blocks, err := NewBlockIterator(repo, 0).Collect(ctx)
			require.NoError(t, err)

			changed, err := NewTagProcessor(repo, policy, nil).Process(ctx, blocks)
			if tt.wantErr {
				assert.ErrorIs(t, err, badger.ErrConflict)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, changed)
			}
			assert.Equal(t, tt.calls, repo.calls)
		})
	}
}
