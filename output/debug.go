package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/search"
)

// DebugMonitor prints the resolved mode and the match count after each
// search stage.
type DebugMonitor struct {
	w     io.Writer
	label lipgloss.Style
	value lipgloss.Style
}

var _ search.SearchMonitor = (*DebugMonitor)(nil)

// NewDebugMonitor creates a monitor writing to w, usually stderr.
func NewDebugMonitor(w io.Writer) *DebugMonitor {
	r := lipgloss.NewRenderer(w)
	return &DebugMonitor{
		w:     w,
		label: r.NewStyle().Foreground(lipgloss.Color("241")),
		value: r.NewStyle().Bold(true),
	}
}

func (d *DebugMonitor) print(label string, value any) {
	fmt.Fprintf(d.w, "%s %s\n", d.label.Render("[debug] "+label+":"), d.value.Render(fmt.Sprint(value)))
}

func (d *DebugMonitor) Start(mode search.Mode) {
	d.print("Mode", mode.Kind())
	switch m := mode.(type) {
	case search.NamespaceSearch:
		d.print("Namespace", m.Prefix+"/")
	case search.DeclarativeSearch:
		d.print("Query", m.Query)
		if len(m.Inputs) > 0 {
			d.print("Inputs", m.Inputs)
		}
		if m.Pattern != nil {
			d.print("Regex", m.Pattern)
		}
	case search.TagSearch:
		d.print("Tag", m.PrimaryTag)
		d.printScopeAndFilter(m.PageScope, m.Filter)
	case search.TextSearch:
		d.print("Text", m.Text)
		d.print("Case insensitive", m.CaseInsensitive)
		d.printScopeAndFilter(m.PageScope, m.Filter)
	}
}

func (d *DebugMonitor) printScopeAndFilter(pageScope string, filter search.TagFilter) {
	if pageScope != "" {
		d.print("Page", pageScope)
	}
	if len(filter.Required) > 0 {
		d.print("Tags", fmt.Sprintf("%v (%s)", filter.Required, filter.Logic))
	}
	if len(filter.Excluded) > 0 {
		d.print("Excluded tags", filter.Excluded)
	}
}

func (d *DebugMonitor) AfterExecutorCall(matches []core.SearchMatch) {
	d.print("Executor matches", len(matches))
}

func (d *DebugMonitor) AfterTextFilter(matches []core.SearchMatch) {
	d.print("After text filter", len(matches))
}

func (d *DebugMonitor) AfterTagFilter(matches []core.SearchMatch) {
	d.print("After tag filter", len(matches))
}

func (d *DebugMonitor) AfterRegexFilter(matches []core.SearchMatch) {
	d.print("After regex filter", len(matches))
}

func (d *DebugMonitor) Finish(result *core.SearchResult) {
	if !result.Success {
		d.print("Failed", result.Message)
		return
	}
	total := len(result.Matches)
	if result.TotalCount != nil {
		total = *result.TotalCount
	}
	d.print("Total", total)
}
