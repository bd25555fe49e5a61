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


package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/graphsearch"
	"github.com/poiesic/graphsearch/config"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/ingestion"
	"github.com/poiesic/graphsearch/output"
	"github.com/poiesic/graphsearch/reindex"
	"github.com/poiesic/graphsearch/search"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "graphsearch",
		Usage: "Search a local graph of pages and blocks by text, tag, namespace or query",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
				Value:   config.DefaultConfigPath(),
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search blocks by text or tags, pages by namespace, or run a query",
				ArgsUsage: "[terms...]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Filter by tag (repeatable, comma separated)",
					},
					&cli.BoolFlag{
						Name:  "any",
						Usage: "Match any of the tags instead of all of them",
					},
					&cli.StringSliceFlag{
						Name:  "negtag",
						Usage: "Exclude blocks with this tag (repeatable, comma separated)",
					},
					&cli.StringFlag{
						Name:  "page",
						Usage: "Limit the search to a page, by title or uid",
					},
					&cli.BoolFlag{
						Name:    "case-insensitive",
						Aliases: []string{"i"},
						Usage:   "Match search terms regardless of case",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultLimit,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Show the resolved search and the match count after each stage",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Run a raw declarative query",
					},
					&cli.StringFlag{
						Name:  "inputs",
						Usage: "JSON array of inputs for the query",
					},
					&cli.StringFlag{
						Name:  "regex",
						Usage: "Filter query results with a regular expression",
					},
					&cli.StringFlag{
						Name:  "regex-flags",
						Usage: "Regular expression flags (i, m, s)",
					},
					&cli.StringFlag{
						Name:  "namespace",
						Usage: "List pages under a namespace prefix",
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a JSON graph export",
				ArgsUsage: "<export.json>",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of pages imported concurrently",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N pages",
						Value: 100,
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-extract the tags of every stored block",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of blocks to process in each batch",
						Value: reindex.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N blocks",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for a conflicting write",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 50 * time.Millisecond,
					},
				},
			},
		},
	}
}

// setup loads the configuration and installs the logger. A missing file at
// the default location is not an error.
func setup(c *cli.Context) error {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || c.IsSet("config") {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = config.DefaultConfig()
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.App.Metadata = map[string]any{configKey: cfg}

	return setupLogger(c.App.ErrWriter, cfg.LogLevel)
}

func setupLogger(w io.Writer, levelStr string) error {
	if w == nil {
		w = os.Stderr
	}

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func searchCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	limit := cfg.Limit
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}
	asJSON := c.Bool("json") || cfg.Format == config.FormatJSON

	req := search.Request{
		Terms:           c.Args().Slice(),
		Tags:            c.StringSlice("tag"),
		AnyTag:          c.Bool("any"),
		ExcludedTags:    c.StringSlice("negtag"),
		PageScope:       c.String("page"),
		CaseInsensitive: c.Bool("case-insensitive"),
		Limit:           limit,
		Query:           c.String("query"),
		Inputs:          c.String("inputs"),
		Regex:           c.String("regex"),
		RegexFlags:      c.String("regex-flags"),
		Namespace:       c.String("namespace"),
	}
	if len(req.Terms) == 0 && req.Query == "" && req.Namespace == "" && len(req.Tags) == 0 {
		terms, err := readTerms(c.App.Reader)
		if err != nil {
			return fmt.Errorf("failed to read search terms: %w", err)
		}
		req.Terms = terms
	}

	// Reject requests without criteria before touching the store
	mode, err := search.SelectMode(req)
	if err != nil {
		return fail(c, asJSON, err.Error())
	}

	g, err := graphsearch.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer g.Close()

	searcher, err := g.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	var monitor search.SearchMonitor
	if c.Bool("debug") {
		monitor = output.NewDebugMonitor(c.App.ErrWriter)
	}
	res := searcher.RunWithMonitor(c.Context, mode, req.Limit, monitor)
	if !res.Success {
		return fail(c, asJSON, res.Message)
	}

	return output.NewPrinter(c.App.Writer, asJSON).Print(mode.Kind(), res)
}

// fail reports a failed search and exits non-zero. JSON output goes to
// stdout so callers piping the result still see it.
func fail(c *cli.Context, asJSON bool, message string) error {
	w := c.App.ErrWriter
	if asJSON {
		w = c.App.Writer
	}
	if err := output.NewPrinter(w, asJSON).Print(search.ModeText, core.NewFailure(nil, message)); err != nil {
		return err
	}
	return cli.Exit("", 1)
}

// readTerms splits piped input into search terms. Input from a terminal is
// ignored.
func readTerms(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	if f, ok := r.(*os.File); ok {
		info, err := f.Stat()
		if err != nil || info.Mode()&os.ModeCharDevice != 0 {
			return nil, nil
		}
	}

	var terms []string
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		terms = append(terms, scanner.Text())
	}
	return terms, scanner.Err()
}

func importCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("pool-size") {
		cfg.PoolSize = c.Int("pool-size")
	}
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected one export file, got %d arguments", c.Args().Len())
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	path := c.Args().First()
	var src io.Reader = c.App.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open export: %w", err)
		}
		defer f.Close()
		src = f
	}

	g, err := graphsearch.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer g.Close()

	opts := []ingestion.Option{ingestion.WithProgress(c.App.ErrWriter, c.Int("report-interval"))}
	if cfg.PoolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(cfg.PoolSize))
	}
	importer, err := g.NewImporter(opts...)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}
	defer importer.Release()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DBPath)
	fmt.Fprintf(c.App.ErrWriter, "Export: %s\n", path)
	fmt.Fprintln(c.App.ErrWriter)

	stats, err := importer.Import(c.Context, src)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Imported %d pages (%d replaced), %d blocks\n", stats.Pages, stats.Replaced, stats.Blocks)
	return nil
}

func reindexCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	g, err := graphsearch.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer g.Close()

	reindexer, err := g.NewReindexer(reindexConfig, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DBPath)
	fmt.Fprintln(c.App.ErrWriter)

	stats, err := reindexer.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Reindexed %d blocks, %d changed\n", stats.Blocks, stats.Changed)
	return nil
}
