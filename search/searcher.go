package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/graphsearch/core"
)

// Searcher dispatches a search to its executor and refines the results.
type Searcher struct {
	executor Executor
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(executor Executor, opts ...Option) (*Searcher, error) {
	if executor == nil {
		return nil, ErrExecutorRequired
	}

	s := &Searcher{
		executor: executor,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search selects a mode for req and runs it.
// Requests without criteria or with malformed inputs fail without reaching the executor.
func (s *Searcher) Search(ctx context.Context, req Request) *core.SearchResult {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) *core.SearchResult {
	mode, err := SelectMode(req)
	if err != nil {
		s.logger.Debug("rejected search request", "err", err)
		return core.NewFailure(err, err.Error())
	}
	return s.RunWithMonitor(ctx, mode, req.Limit, monitor)
}

// Run executes mode and returns at most limit matches.
func (s *Searcher) Run(ctx context.Context, mode Mode, limit int) *core.SearchResult {
	return s.RunWithMonitor(ctx, mode, limit, nil)
}

// RunWithMonitor is Run with a monitor receiving callbacks at each stage.
func (s *Searcher) RunWithMonitor(ctx context.Context, mode Mode, limit int, monitor SearchMonitor) *core.SearchResult {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if mode == nil {
		err := fmt.Errorf("%w: no mode selected", ErrNoCriteria)
		return core.NewFailure(err, err.Error())
	}

	monitor.Start(mode)

	var (
		matches []core.SearchMatch
		failure *core.SearchResult
	)
	switch m := mode.(type) {
	case NamespaceSearch:
		matches, failure = s.runNamespace(ctx, m, monitor)
	case DeclarativeSearch:
		matches, failure = s.runDeclarative(ctx, m, monitor)
	case TagSearch:
		matches, failure = s.runTag(ctx, m, monitor)
	case TextSearch:
		matches, failure = s.runText(ctx, m, monitor)
	default:
		err := fmt.Errorf("%w: unsupported mode %T", ErrNoCriteria, mode)
		failure = core.NewFailure(err, err.Error())
	}
	if failure != nil {
		monitor.Finish(failure)
		return failure
	}

	shown, total := Limit(matches, limit)
	result := &core.SearchResult{
		Success:    true,
		Matches:    shown,
		TotalCount: &total,
	}
	if len(shown) < total {
		result.Message = fmt.Sprintf("showing first %d of %d matches", len(shown), total)
	}

	s.logger.Debug("search finished", "mode", mode.Kind(), "shown", len(shown), "total", total)
	monitor.Finish(result)
	return result
}

func (s *Searcher) runNamespace(ctx context.Context, m NamespaceSearch, monitor SearchMonitor) ([]core.SearchMatch, *core.SearchResult) {
	matches, failure := s.call(ctx, ModeNamespace, func() (*core.SearchResult, error) {
		return s.executor.TextQuery(ctx, m.Prefix+"/", "", ScopePageTitles)
	})
	if failure != nil {
		return nil, failure
	}
	monitor.AfterExecutorCall(matches)

	pages := make([]core.SearchMatch, 0, len(matches))
	for _, match := range matches {
		title := match.PageTitle
		if title == "" {
			title = match.Content
		}
		pages = append(pages, core.SearchMatch{
			BlockUID:  match.BlockUID,
			Content:   title,
			PageTitle: title,
		})
	}
	return pages, nil
}

func (s *Searcher) runDeclarative(ctx context.Context, m DeclarativeSearch, monitor SearchMonitor) ([]core.SearchMatch, *core.SearchResult) {
	matches, failure := s.call(ctx, ModeDeclarative, func() (*core.SearchResult, error) {
		return s.executor.DeclarativeQuery(ctx, m.Query, m.Inputs)
	})
	if failure != nil {
		return nil, failure
	}
	monitor.AfterExecutorCall(matches)

	if m.Pattern == nil {
		return matches, nil
	}
	filtered, err := m.Pattern.Apply(matches)
	if err != nil {
		s.logger.Warn("regex filter failed", "pattern", m.Pattern.String(), "err", err)
		return nil, core.NewFailure(err, err.Error())
	}
	monitor.AfterRegexFilter(filtered)
	return filtered, nil
}

func (s *Searcher) runTag(ctx context.Context, m TagSearch, monitor SearchMonitor) ([]core.SearchMatch, *core.SearchResult) {
	matches, failure := s.call(ctx, ModeTag, func() (*core.SearchResult, error) {
		return s.executor.TagQuery(ctx, m.PrimaryTag, m.PageScope)
	})
	if failure != nil {
		return nil, failure
	}
	monitor.AfterExecutorCall(matches)

	matches = m.Filter.Apply(matches)
	monitor.AfterTagFilter(matches)
	return matches, nil
}

func (s *Searcher) runText(ctx context.Context, m TextSearch, monitor SearchMonitor) ([]core.SearchMatch, *core.SearchResult) {
	matches, failure := s.call(ctx, ModeText, func() (*core.SearchResult, error) {
		return s.executor.TextQuery(ctx, m.Text, m.PageScope, ScopeBlocks)
	})
	if failure != nil {
		return nil, failure
	}
	monitor.AfterExecutorCall(matches)

	if m.CaseInsensitive {
		matches = MatchText(matches, m.Text)
		monitor.AfterTextFilter(matches)
	}

	matches = m.Filter.Apply(matches)
	monitor.AfterTagFilter(matches)
	return matches, nil
}

// call performs the single executor round trip of a search and converts
// executor failures into a failed result carrying the executor's message.
func (s *Searcher) call(ctx context.Context, kind ModeKind, fn func() (*core.SearchResult, error)) ([]core.SearchMatch, *core.SearchResult) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewFailure(fmt.Errorf("%w: %w", ErrQueryFailed, err), err.Error())
	}

	res, err := fn()
	if err != nil {
		s.logger.Error("error executing search", "mode", kind, "err", err)
		return nil, core.NewFailure(fmt.Errorf("%w: %w", ErrQueryFailed, err), err.Error())
	}
	if res == nil {
		return []core.SearchMatch{}, nil
	}
	if !res.Success {
		s.logger.Error("search reported failure", "mode", kind, "message", res.Message)
		return nil, core.NewFailure(fmt.Errorf("%w: %s", ErrQueryFailed, res.Message), res.Message)
	}
	if res.Matches == nil {
		return []core.SearchMatch{}, nil
	}
	return res.Matches, nil
}
