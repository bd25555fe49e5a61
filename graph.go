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


package graphsearch

import (
	"io"
	"log/slog"

	"github.com/poiesic/graphsearch/ingestion"
	"github.com/poiesic/graphsearch/reindex"
	"github.com/poiesic/graphsearch/search"
	"github.com/poiesic/graphsearch/storage"
	"github.com/poiesic/graphsearch/storage/badger"
)

// Graph bundles the store, its repositories and the query executor.
type Graph struct {
	backend   *badger.Backend
	pageRepo  storage.PageRepository
	blockRepo storage.BlockRepository
	executor  *badger.Executor
	logger    *slog.Logger
}

// GraphOption configures a Graph.
type GraphOption func(*graphOptions)

type graphOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by the graph and its store.
func WithLogger(logger *slog.Logger) GraphOption {
	return func(o *graphOptions) {
		o.logger = logger
	}
}

// Open opens or creates the graph stored under filePath.
func Open(filePath string, opts ...GraphOption) (*Graph, error) {
	return open(filePath, false, opts)
}

// OpenInMemory opens an empty graph that lives only in memory.
func OpenInMemory(opts ...GraphOption) (*Graph, error) {
	return open("", true, opts)
}

func open(filePath string, inMemory bool, opts []GraphOption) (*Graph, error) {
	// Apply options
	options := &graphOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, inMemory, badger.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	pageRepo, err := badger.NewPageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	blockRepo, err := badger.NewBlockRepository(backend)
	if err != nil {
		pageRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Graph{
		backend:   backend,
		pageRepo:  pageRepo,
		blockRepo: blockRepo,
		executor:  badger.NewExecutor(backend),
		logger:    options.logger,
	}, nil
}

func (g *Graph) Close() error {
	// Close repositories
	if err := g.blockRepo.Close(); err != nil {
		g.logger.Error("error closing block repository", "err", err)
		return err
	}
	if err := g.pageRepo.Close(); err != nil {
		g.logger.Error("error closing page repository", "err", err)
		return err
	}

	// Close backend
	if err := g.backend.Close(); err != nil {
		g.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (g *Graph) PageRepository() storage.PageRepository {
	return g.pageRepo
}

func (g *Graph) BlockRepository() storage.BlockRepository {
	return g.blockRepo
}

// Executor returns the executor that runs queries against the store.
func (g *Graph) Executor() search.Executor {
	return g.executor
}

func (g *Graph) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(g.logger)}, opts...)
	return search.NewSearcher(g.executor, opts...)
}

func (g *Graph) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(g.logger)}, opts...)
	return ingestion.NewImporter(g.pageRepo, g.blockRepo, opts...)
}

// NewReindexer creates a reindexer over the graph's blocks. A nil config uses
// reindex.DefaultConfig.
func (g *Graph) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(g.blockRepo, config, progress, reindex.WithLogger(g.logger))
}
