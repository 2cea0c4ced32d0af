package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/session"
)

const (
	facetPanelWidth = 28
	primaryField    = "generated_text"
)

// View renders the search screen.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("cv-transcriptions search"))
	b.WriteString("\n")
	b.WriteString(m.panel(focusInput).Render(m.input.View()))
	b.WriteString("\n")
	if s := m.renderSuggestions(); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}

	facets := m.panel(focusFacets).Width(facetPanelWidth).Render(m.renderFacets())
	resultsWidth := 60
	if m.width > 0 {
		resultsWidth = max(m.width-facetPanelWidth-8, 20)
	}
	results := m.panel(focusResults).Width(resultsWidth).Render(m.renderResults(resultsWidth - 4))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, facets, results))
	b.WriteString("\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter search · tab focus · space toggle facet · ←/→ page · ctrl+r reset · esc quit"))
	return b.String()
}

func (m *Model) panel(f focus) lipgloss.Style {
	if m.focus == f {
		return m.styles.Focused
	}
	return m.styles.Blurred
}

func (m *Model) renderSuggestions() string {
	suggestions := m.session.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		lines = append(lines, "  "+m.styles.Suggestion.Render(RenderHighlight(s.Fields[primaryField], m.styles.Highlight)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFacets() string {
	res := m.session.Result()
	if res == nil || len(res.Facets) == 0 {
		return m.styles.Meta.Render("no facets")
	}

	var b strings.Builder
	i := 0
	for fi, f := range res.Facets {
		if fi > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.styles.Facet.Render(facetTitle(m.session.Config(), f)))
		b.WriteString("\n")
		if len(f.Values) == 0 {
			b.WriteString(m.styles.Meta.Render("  (none)"))
			b.WriteString("\n")
		}
		for _, v := range f.Values {
			cursor := "  "
			if m.focus == focusFacets && i == m.facetCursor {
				cursor = m.styles.Cursor.Render("> ")
			}
			mark := "[ ]"
			if v.Selected {
				mark = m.styles.Selected.Render("[x]")
			}
			fmt.Fprintf(&b, "%s%s %s %s\n", cursor, mark, v.Value, m.styles.Count.Render(fmt.Sprintf("(%d)", v.Count)))
			i++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func facetTitle(cfg domain.StaticConfig, f domain.FacetResult) string {
	if f.Label != "" {
		return f.Label
	}
	if c, ok := cfg.Facet(f.Name); ok && c.Label != "" {
		return c.Label
	}
	return f.Name
}

func (m *Model) renderResults(width int) string {
	res := m.session.Result()
	switch {
	case res == nil:
		return m.styles.Meta.Render("searching...")
	case len(res.Results) == 0:
		return m.styles.Meta.Render("no results")
	}

	var b strings.Builder
	for i, item := range res.Results[m.resultTop:] {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.styles.ResultID.Render(item.ID))
		b.WriteString("\n")
		text := RenderHighlight(item.Fields[primaryField], m.styles.Highlight)
		b.WriteString(lipgloss.NewStyle().Width(max(width, 10)).Render(text))
		if meta := metaLine(item); meta != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Meta.Render(meta))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// metaLine joins the non-empty secondary fields as key=value pairs.
func metaLine(item domain.ResultItem) string {
	keys := make([]string, 0, len(item.Fields))
	for k, v := range item.Fields {
		if k != primaryField && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+item.Fields[k])
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderStatus() string {
	res := m.session.Result()
	switch m.session.Status() {
	case session.StatusLoading:
		return m.styles.Status.Render("searching...")
	case session.StatusFailed:
		return m.styles.Error.Render("search failed")
	}
	if res == nil {
		return ""
	}
	if res.Error != "" {
		return m.styles.Error.Render(res.Error)
	}
	p := res.Paging
	return m.styles.Status.Render(fmt.Sprintf("page %d of %d · %d results · %d ms", p.CurrentPage, p.TotalPages, p.TotalResults, res.TookMs))
}

// RenderHighlight replaces <em>…</em> spans with style-rendered text.
// Unbalanced tags are dropped.
func RenderHighlight(s string, style lipgloss.Style) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "<em>")
		if start < 0 {
			b.WriteString(strings.ReplaceAll(s, "</em>", ""))
			return b.String()
		}
		b.WriteString(strings.ReplaceAll(s[:start], "</em>", ""))
		rest := s[start+len("<em>"):]
		end := strings.Index(rest, "</em>")
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(style.Render(rest[:end]))
		s = rest[end+len("</em>"):]
	}
}
