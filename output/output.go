package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/graphsearch/core"
	"github.com/poiesic/graphsearch/search"
)

// styles groups the text styles of a printer. They are bound to the
// printer's renderer so colors are dropped when the writer is not a terminal.
type styles struct {
	header  lipgloss.Style
	content lipgloss.Style
	meta    lipgloss.Style
	tag     lipgloss.Style
	err     lipgloss.Style
	empty   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:  r.NewStyle().Bold(true),
		content: r.NewStyle(),
		meta:    r.NewStyle().Foreground(lipgloss.Color("241")), // Dim gray
		tag:     r.NewStyle().Foreground(lipgloss.Color("39")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		empty:   r.NewStyle().Faint(true),
	}
}

// Printer renders search results as indented JSON or line-oriented text.
type Printer struct {
	w      io.Writer
	json   bool
	styles styles
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, asJSON bool) *Printer {
	return &Printer{
		w:      w,
		json:   asJSON,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
}

// Print renders res according to the mode that produced it.
func (p *Printer) Print(kind search.ModeKind, res *core.SearchResult) error {
	if res == nil {
		return nil
	}
	if !res.Success {
		return p.printFailure(res)
	}

	switch kind {
	case search.ModeNamespace:
		return p.printPages(res)
	case search.ModeDeclarative:
		return p.printRows(res)
	default:
		return p.printMatches(res)
	}
}

func (p *Printer) printFailure(res *core.SearchResult) error {
	if p.json {
		return p.encode(struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}{Success: false, Message: res.Message})
	}
	_, err := fmt.Fprintln(p.w, p.styles.err.Render("Error: "+res.Message))
	return err
}

func (p *Printer) printPages(res *core.SearchResult) error {
	refs := res.PageRefs()
	if p.json {
		return p.encode(refs)
	}
	if len(refs) == 0 {
		return p.line(p.styles.empty.Render("No pages found."))
	}

	if err := p.header("Found %d page(s)", res); err != nil {
		return err
	}
	for _, ref := range refs {
		line := "- " + p.styles.content.Render(ref.PageTitle) + " " + p.styles.meta.Render("("+string(ref.PageUID)+")")
		if err := p.line(line); err != nil {
			return err
		}
	}
	return nil
}

// printRows renders declarative rows. JSON output decodes each row back into
// its structured form, keeping the raw string when a row is not valid JSON.
func (p *Printer) printRows(res *core.SearchResult) error {
	if p.json {
		rows := make([]any, 0, len(res.Matches))
		for _, m := range res.Matches {
			var row any
			if err := json.Unmarshal([]byte(m.Content), &row); err != nil {
				row = m.Content
			}
			rows = append(rows, row)
		}
		return p.encode(rows)
	}
	if len(res.Matches) == 0 {
		return p.line(p.styles.empty.Render("No results found."))
	}

	if err := p.header("Found %d results", res); err != nil {
		return err
	}
	for _, m := range res.Matches {
		if err := p.line(p.styles.content.Render(m.Content)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printMatches(res *core.SearchResult) error {
	if p.json {
		matches := res.Matches
		if matches == nil {
			matches = []core.SearchMatch{}
		}
		return p.encode(matches)
	}
	if len(res.Matches) == 0 {
		return p.line(p.styles.empty.Render("No matches found."))
	}

	if err := p.header("Found %d matches", res); err != nil {
		return err
	}
	for _, m := range res.Matches {
		if err := p.line("- " + p.styles.content.Render(firstLine(m.Content))); err != nil {
			return err
		}
		meta := string(m.BlockUID)
		if m.PageTitle != "" {
			meta = m.PageTitle + " · " + meta
		}
		line := "  " + p.styles.meta.Render(meta)
		if len(m.Tags) > 0 {
			line += " " + p.styles.tag.Render("#"+strings.Join(m.Tags, " #"))
		}
		if err := p.line(line); err != nil {
			return err
		}
	}
	return nil
}

// header writes the count line, noting truncation when the result was limited.
func (p *Printer) header(format string, res *core.SearchResult) error {
	shown := len(res.Matches)
	total := shown
	if res.TotalCount != nil {
		total = *res.TotalCount
	}
	text := fmt.Sprintf(format, total)
	if total > shown {
		text += fmt.Sprintf(" (showing first %d)", shown)
	}
	return p.line(p.styles.header.Render(text+":") + "\n")
}

func (p *Printer) line(s string) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
