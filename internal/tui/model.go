// Package tui is the terminal renderer. It drives a session from bubbletea's
// event loop; every transport call runs as a command and reports back as a
// message, so the session itself is only touched from Update.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine"
	"github.com/utafrali/TranscriptSearch/internal/session"
)

// DefaultTimeout bounds each transport call.
const DefaultTimeout = 10 * time.Second

type focus int

const (
	focusInput focus = iota
	focusFacets
	focusResults
	focusCount
)

// facetEntry is one selectable line of the facet panel.
type facetEntry struct {
	facet string
	value string
}

// Model is the bubbletea model of the search screen.
type Model struct {
	session   *session.Session
	transport engine.Transport
	logger    *slog.Logger
	timeout   time.Duration
	styles    Styles

	input       textinput.Model
	focus       focus
	facetCursor int
	resultTop   int
	lastInput   string

	width  int
	height int
}

// New creates the search screen over sess, sending requests through transport.
func New(sess *session.Session, transport engine.Transport, logger *slog.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search transcriptions"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	return &Model{
		session:   sess,
		transport: transport,
		logger:    logger,
		timeout:   DefaultTimeout,
		styles:    DefaultStyles(),
		input:     ti,
	}
}

// Init starts the cursor blinking and loads the unfiltered result set.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.search())
}

// search issues the current state and returns the command that runs it.
func (m *Model) search() tea.Cmd {
	req := m.session.Issue()
	transport, timeout := m.transport, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		raw, err := transport.Search(ctx, req)
		return searchDoneMsg{req: req, raw: raw, err: err}
	}
}

// suggest issues an autocomplete request for the input value, if any.
func (m *Model) suggest() tea.Cmd {
	req, ok := m.session.Suggest(m.input.Value())
	if !ok {
		return nil
	}
	transport, timeout := m.transport, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		raw, err := transport.Search(ctx, req)
		return suggestDoneMsg{req: req, raw: raw, err: err}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case searchDoneMsg:
		if msg.err != nil {
			if m.session.Fail(msg.req, msg.err) {
				m.resultTop = 0
			}
		} else if m.session.Apply(msg.req, msg.raw) {
			m.resultTop = 0
			m.clampFacetCursor()
		}
		return m, nil

	case suggestDoneMsg:
		if msg.err != nil {
			m.logger.Debug("suggestion request failed", slog.String("error", msg.err.Error()))
		}
		m.session.ApplySuggestions(msg.req, msg.raw)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case "ctrl+r":
		m.session.State().Reset()
		m.session.ClearSuggestions()
		m.input.SetValue("")
		m.lastInput = ""
		return m, m.search()
	}

	switch m.focus {
	case focusInput:
		return m.handleInputKey(msg)
	case focusFacets:
		return m.handleFacetKey(msg)
	default:
		return m.handleResultKey(msg)
	}
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.session.State().SetTerm(m.input.Value())
		m.session.ClearSuggestions()
		return m, m.search()
	case "left", "right":
		if m.input.Value() == "" {
			return m, m.turnPage(msg.String())
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.lastInput {
		m.lastInput = v
		return m, tea.Batch(cmd, m.suggest())
	}
	return m, cmd
}

func (m *Model) handleFacetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.facetEntries()
	switch msg.String() {
	case "up", "k":
		if m.facetCursor > 0 {
			m.facetCursor--
		}
	case "down", "j":
		if m.facetCursor < len(entries)-1 {
			m.facetCursor++
		}
	case " ", "space", "enter":
		if m.facetCursor < len(entries) {
			e := entries[m.facetCursor]
			if err := m.session.State().ToggleFacetValue(e.facet, e.value); err != nil {
				m.logger.Warn("facet toggle rejected", slog.String("error", err.Error()))
				return m, nil
			}
			return m, m.search()
		}
	case "left", "right":
		return m, m.turnPage(msg.String())
	}
	return m, nil
}

func (m *Model) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.resultTop > 0 {
			m.resultTop--
		}
	case "down", "j":
		if res := m.session.Result(); res != nil && m.resultTop < len(res.Results)-1 {
			m.resultTop++
		}
	case "left", "right", "pgup", "pgdown":
		return m, m.turnPage(msg.String())
	}
	return m, nil
}

// turnPage moves one page back or forward. Pages outside 1..totalPages are
// ignored.
func (m *Model) turnPage(key string) tea.Cmd {
	state := m.session.State()
	next := state.Page() + 1
	if key == "left" || key == "pgup" {
		next = state.Page() - 1
	}

	if res := m.session.Result(); next > state.Page() && (res == nil || next > res.Paging.TotalPages) {
		return nil
	}
	if err := state.SetPage(next); err != nil {
		return nil
	}
	return m.search()
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// facetEntries flattens the facet panel into selectable lines in display order.
func (m *Model) facetEntries() []facetEntry {
	res := m.session.Result()
	if res == nil {
		return nil
	}
	var entries []facetEntry
	for _, f := range res.Facets {
		for _, v := range f.Values {
			entries = append(entries, facetEntry{facet: f.Name, value: v.Value})
		}
	}
	return entries
}

func (m *Model) clampFacetCursor() {
	if n := len(m.facetEntries()); m.facetCursor >= n {
		m.facetCursor = max(n-1, 0)
	}
}

// Result returns the bound result currently shown.
func (m *Model) Result() *domain.SearchResult { return m.session.Result() }
