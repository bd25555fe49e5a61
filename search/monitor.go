package search

import (
	"github.com/poiesic/graphsearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(mode Mode)
	AfterExecutorCall(matches []core.SearchMatch)
	AfterTextFilter(matches []core.SearchMatch)
	AfterTagFilter(matches []core.SearchMatch)
	AfterRegexFilter(matches []core.SearchMatch)
	Finish(result *core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Mode)                           {}
func (n *noopMonitor) AfterExecutorCall(_ []core.SearchMatch) {}
func (n *noopMonitor) AfterTextFilter(_ []core.SearchMatch)   {}
func (n *noopMonitor) AfterTagFilter(_ []core.SearchMatch)    {}
func (n *noopMonitor) AfterRegexFilter(_ []core.SearchMatch)  {}
func (n *noopMonitor) Finish(_ *core.SearchResult)            {}
