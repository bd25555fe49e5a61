// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/ingestion"
	"github.com/poiesic/graphsearch/storage"
)

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of blocks processed per write
	BatchSize int

	// ReportInterval is how often to report progress (number of blocks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a conflicting write
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 1000,
		MaxRetries:     3,
		RetryDelay:     50 * time.Millisecond,
	}
}

// Stats summarizes a reindex run.
type Stats struct {
	Blocks  int // blocks examined
	Changed int // blocks whose tags were rewritten
}

// Reindexer rebuilds the tag index of every stored block.
type Reindexer struct {
	config    *Config
	progress  io.Writer
	logger    *slog.Logger
	iterator  *BlockIterator
	processor *TagProcessor
}

// Option configures a Reindexer.
type Option func(*Reindexer)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reindexer) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr), nil for none
func NewReindexer(repo storage.BlockRepository, config *Config, progress io.Writer, opts ...Option) (*Reindexer, error) {
	if repo == nil {
		return nil, ErrBlockRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reindexer{
		config:   config,
		progress: progress,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	policy := RetryPolicy{
		MaxAttempts: config.MaxRetries,
		BaseDelay:   config.RetryDelay,
		Retryable:   IsConflict,
	}
	r.iterator = NewBlockIterator(repo, config.BatchSize)
	r.processor = NewTagProcessor(repo, policy, r.logger)
	return r, nil
}

// Run re-extracts the tags of all blocks and rewrites those that changed.
// Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) (Stats, error) {
	blocks, err := r.iterator.Collect(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read blocks: %w", err)
	}

	stats := Stats{Blocks: len(blocks)}
	if len(blocks) == 0 {
		fmt.Fprintf(r.progress, "No blocks found in database (0 blocks)\n")
		return stats, nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d blocks (batch size: %d)\n", len(blocks), r.iterator.batchSize)

	tracker := ingestion.NewProgressTracker(r.progress, len(blocks), r.config.ReportInterval)
	tracker.SetLabels("Reindexed", "blocks")
	tracker.Start()

	err = r.iterator.batch(ctx, blocks, func(batch []*core.Block) error {
		changed, err := r.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		stats.Changed += changed
		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		return stats, err
	}

	elapsed := tracker.Elapsed()
	tracker.Finish()
	fmt.Fprintf(r.progress, "Reindex complete. Rewrote %d of %d blocks in %v\n",
		stats.Changed, stats.Blocks, elapsed.Round(time.Millisecond))

	r.logger.Info("reindex finished", "blocks", stats.Blocks, "changed", stats.Changed)
	return stats, nil
}
