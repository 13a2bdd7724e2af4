// ABOUTME: Entity list screen for the TUI
// ABOUTME: Paged table with search mode, filter cycling, and record actions
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/listing"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputFilter
)

type listState struct {
	page        entities.Page
	selectedRow int
	filterIdx   int
	input       inputMode
	text        textinput.Model
	err         error
}

func newListState(p entities.Page) listState {
	ti := textinput.New()
	ti.CharLimit = 100
	return listState{page: p, text: ti}
}

func (l listState) shows(name string) bool {
	return l.page != nil && l.page.Name() == name
}

func (l *listState) clampCursor() {
	if l.page == nil {
		return
	}
	if n := l.page.Len(); l.selectedRow >= n {
		l.selectedRow = max(n-1, 0)
	}
}

// fetch runs a staged list request off the event loop.
func (m *Model) fetch(req listing.Request) tea.Cmd {
	p, ctx := m.list.page, m.ctx
	return m.start(func() tea.Msg {
		return listDoneMsg{page: p.Name(), err: p.Fetch(ctx, req)}
	})
}

// run executes fn against the current page off the event loop.
func (m *Model) run(fn func(ctx context.Context, p entities.Page) error) tea.Cmd {
	p, ctx := m.list.page, m.ctx
	return m.start(func() tea.Msg {
		return listDoneMsg{page: p.Name(), err: fn(ctx, p)}
	})
}

func (m Model) renderListView() string {
	p := m.list.page
	var s strings.Builder

	s.WriteString(titleStyle.Render(strings.ToUpper(p.Title())))
	s.WriteString("\n")
	s.WriteString(m.renderQueryLine())
	s.WriteString("\n")

	// Table
	if m.list.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.list.err.Error()))
	} else if p.Len() == 0 && !p.Loading() {
		s.WriteString(fmt.Sprintf("No %s found", strings.ToLower(p.Title())))
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")
	s.WriteString(m.renderPager())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderListHelp())
	return s.String()
}

func (m Model) renderQueryLine() string {
	switch m.list.input {
	case inputSearch:
		return "Search: " + m.list.text.View()
	case inputFilter:
		f := m.list.page.Filters()[m.list.filterIdx]
		return f.Label + ": " + m.list.text.View()
	}

	q := m.list.page.Query()
	var parts []string
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.Search))
	}
	for _, k := range q.ActiveFilters() {
		parts = append(parts, k+"="+q.Filters[k])
	}
	if len(parts) == 0 {
		return helpStyle.Render("No filters")
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderTable() string {
	p := m.list.page
	columns := []table.Column{{Title: "ID", Width: 6}}
	for _, c := range p.Columns() {
		columns = append(columns, table.Column{Title: c.Title, Width: c.Width})
	}

	var rows []table.Row
	for i, r := range p.Rows() {
		id, _ := p.RecordID(i)
		rows = append(rows, append(table.Row{id.String()}, r...))
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-14, 5)),
	)
	if m.list.selectedRow < len(rows) {
		t.SetCursor(m.list.selectedRow)
	}
	return t.View()
}

// renderPager dims the previous and next controls at the bounds.
func (m Model) renderPager() string {
	pg := m.list.page.Pagination()
	prev, next := "‹ Prev", "Next ›"
	if pg.HasPrev() {
		prev = tabActiveStyle.Render(prev)
	} else {
		prev = disabledStyle.Render(prev)
	}
	if pg.HasNext() {
		next = tabActiveStyle.Render(next)
	} else {
		next = disabledStyle.Render(next)
	}
	return fmt.Sprintf("%s  Page %d of %d (%d total)  %s", prev, max(pg.Page, 1), pg.LastPage(), pg.Total, next)
}

func (m Model) renderListHelp() string {
	if m.list.input != inputNone {
		return renderHelp("Enter: Apply", "Esc: Cancel")
	}
	help := []string{"↑/↓: Navigate", "←/→: Page", "Enter: View", "/: Search"}
	if len(m.list.page.Filters()) > 0 {
		help = append(help, "f: Filter", "F: Next filter")
	}
	help = append(help, "c: Clear", "n: New", "e: Edit", "d: Delete")
	if m.list.page.AssignmentTitle() != "" {
		help = append(help, "a: "+m.list.page.AssignmentTitle())
	}
	if m.list.page.ToggleLabel() != "" {
		help = append(help, "t: Toggle "+m.list.page.ToggleLabel())
	}
	help = append(help, "r: Refresh", "Tab: Switch", "q: Quit")
	return renderHelp(help...)
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.input != inputNone {
		return m.handleListInput(msg)
	}
	p := m.list.page

	switch msg.String() {
	case "up", "k":
		if m.list.selectedRow > 0 {
			m.list.selectedRow--
		}
	case "down", "j":
		if m.list.selectedRow < p.Len()-1 {
			m.list.selectedRow++
		}
	case "right", "l":
		req, err := p.StagePage(p.Query().Page + 1)
		if err != nil {
			return m, nil
		}
		m.list.selectedRow = 0
		next := m.fetch(req)
		return m, next
	case "left", "h":
		req, err := p.StagePage(p.Query().Page - 1)
		if err != nil {
			return m, nil
		}
		m.list.selectedRow = 0
		next := m.fetch(req)
		return m, next
	case "/":
		m.list.input = inputSearch
		m.list.text.Placeholder = "name, email, ..."
		m.list.text.SetValue(p.Query().Search)
		next := m.list.text.Focus()
		return m, next
	case "F":
		if n := len(p.Filters()); n > 0 {
			m.list.filterIdx = (m.list.filterIdx + 1) % n
		}
	case "f":
		return m.cycleFilter()
	case "c":
		m.list.selectedRow = 0
		next := m.fetch(p.StageClear())
		return m, next
	case "r":
		next := m.fetch(p.StageReload())
		return m, next
	case "enter":
		return m.openDetail(m.list.selectedRow)
	case "n":
		return m.openForm(p.AddForm(), false)
	case "e":
		f, err := p.EditForm(m.list.selectedRow)
		if err != nil {
			return m, nil
		}
		return m.openForm(f, false)
	case "d":
		return m.confirmDelete(m.list.selectedRow)
	case "a":
		return m.openAssign(m.list.selectedRow)
	case "t":
		if p.ToggleLabel() == "" || p.Len() == 0 {
			return m, nil
		}
		row := m.list.selectedRow
		next := m.run(func(ctx context.Context, p entities.Page) error { return p.Toggle(ctx, row) })
		return m, next
	}
	return m, nil
}

// cycleFilter steps the selected filter through its options and back to
// "any". Free-text filters open an input instead.
func (m Model) cycleFilter() (tea.Model, tea.Cmd) {
	p := m.list.page
	filters := p.Filters()
	if len(filters) == 0 {
		return m, nil
	}
	f := filters[m.list.filterIdx]
	current := p.Query().Filters[f.Key]

	if len(f.Options) == 0 {
		m.list.input = inputFilter
		m.list.text.Placeholder = f.Label
		m.list.text.SetValue(current)
		next := m.list.text.Focus()
		return m, next
	}

	value := f.Options[0]
	if i := slices.Index(f.Options, current); i >= 0 {
		if i+1 < len(f.Options) {
			value = f.Options[i+1]
		} else {
			value = ""
		}
	}
	m.list.selectedRow = 0
	cmd := m.fetch(p.StageFilter(f.Key, value))
	return m, cmd
}

func (m Model) handleListInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.list.page
	switch msg.String() {
	case "esc":
		m.list.input = inputNone
		m.list.text.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.list.text.Value())
		var req listing.Request
		if m.list.input == inputSearch {
			req = p.StageSearch(value)
		} else {
			req = p.StageFilter(p.Filters()[m.list.filterIdx].Key, value)
		}
		m.list.input = inputNone
		m.list.text.Blur()
		m.list.selectedRow = 0
		next := m.fetch(req)
		return m, next
	}

	var cmd tea.Cmd
	m.list.text, cmd = m.list.text.Update(msg)
	return m, cmd
}
