package reindex

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/storage"
	"github.com/poiesic/graphsearch/tags"
)

// TagProcessor re-extracts the tags of a batch of blocks and writes back the
// blocks whose tags changed.
type TagProcessor struct {
	repo   storage.BlockRepository
	policy RetryPolicy
	logger *slog.Logger
}

// NewTagProcessor creates a tag processor retrying conflicting writes under policy.
func NewTagProcessor(repo storage.BlockRepository, policy RetryPolicy, logger *slog.Logger) *TagProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagProcessor{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

// Process updates the blocks of a batch in place and returns how many changed.
func (tp *TagProcessor) Process(ctx context.Context, blocks []*core.Block) (int, error) {
	var changed []*core.Block
	for _, b := range blocks {
		extracted := tags.Extract(b.Content)
		if slices.Equal(extracted, b.Tags) {
			continue
		}
		tp.logger.Debug("block tags changed", "uid", b.UID, "old", b.Tags, "new", extracted)
		b.Tags = extracted
		changed = append(changed, b)
	}
	if len(changed) == 0 {
		return 0, nil
	}

	err := Retry(ctx, tp.policy, tp.logger, func() error {
		_, err := tp.repo.UpdateBlocks(ctx, changed...)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update %d blocks: %w", len(changed), err)
	}
	return len(changed), nil
}
