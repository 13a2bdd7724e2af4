// ABOUTME: Two-column assignment editor for role permissions and user roles
// ABOUTME: Moves keys between available and assigned, then saves the diff
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/salesdesk/forms"
)

type (
	assignLoadedMsg struct {
		editor *forms.AssignmentEditor
		err    error
	}
	assignSavedMsg struct{ err error }
)

type assignState struct {
	row    int
	label  string
	form   *forms.Form
	editor *forms.AssignmentEditor
	column int
	cursor [2]int
	saving bool
	err    error
}

var columnStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("238")).
	Padding(0, 1).
	Width(36)

func (m Model) openAssign(row int) (tea.Model, tea.Cmd) {
	p := m.list.page
	if p.AssignmentTitle() == "" {
		return m, nil
	}
	f, err := p.EditForm(row)
	if err != nil {
		return m, nil
	}
	m.assign = assignState{row: row, label: p.RecordLabel(row), form: f}
	m.viewMode = ViewAssign
	ctx := m.ctx
	next := m.start(func() tea.Msg {
		ed, err := p.OpenAssignments(ctx, row)
		return assignLoadedMsg{editor: ed, err: err}
	})
	return m, next
}

func (m Model) assignLoaded(msg assignLoadedMsg) (tea.Model, tea.Cmd) {
	if m.viewMode != ViewAssign {
		return m, nil
	}
	m.assign.editor, m.assign.err = msg.editor, msg.err
	return m, nil
}

func (a assignState) columns() [2][]string {
	return [2][]string{a.editor.Available(), a.editor.Assigned()}
}

func (m Model) renderAssignView() string {
	a := m.assign
	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(m.list.page.AssignmentTitle()) + ": " + a.label))
	s.WriteString("\n")

	switch {
	case a.err != nil:
		s.WriteString(errorStyle.Render("Failed to load: " + a.err.Error()))
		s.WriteString("\n")
		s.WriteString(renderHelp("Esc: Back"))
		return s.String()
	case a.editor == nil:
		s.WriteString(m.spinner.View() + " Loading...")
		return s.String()
	}

	cols := a.columns()
	titles := [2]string{"Available", "Assigned"}
	var boxes []string
	for c := range cols {
		var b strings.Builder
		head := titles[c]
		if c == a.column {
			head = tabActiveStyle.Render(head)
		} else {
			head = tabInactiveStyle.Render(head)
		}
		b.WriteString(head + "\n")
		if len(cols[c]) == 0 {
			b.WriteString(disabledStyle.Render("(none)"))
		}
		for i, key := range cols[c] {
			if c == a.column && i == a.cursor[c] {
				b.WriteString("▶ " + key + "\n")
			} else {
				b.WriteString("  " + key + "\n")
			}
		}
		boxes = append(boxes, columnStyle.Render(b.String()))
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	s.WriteString("\n")

	added, removed := a.editor.Diff()
	if len(added) > 0 || len(removed) > 0 {
		s.WriteString(successStyle.Render("+ "+strings.Join(added, ", ")) + "  " + errorStyle.Render("- "+strings.Join(removed, ", ")))
		s.WriteString("\n")
	}
	s.WriteString(renderHelp("←/→: Column", "↑/↓: Move", "Enter: Assign/Remove", "Ctrl+S: Save", "Esc: Back"))
	return s.String()
}

func (m Model) handleAssignKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := &m.assign
	if msg.String() == "esc" {
		m.viewMode = ViewList
		return m, nil
	}
	if a.editor == nil || a.saving {
		return m, nil
	}

	cols := a.columns()
	switch msg.String() {
	case "left", "right", "h", "l":
		a.column = 1 - a.column
	case "up", "k":
		if a.cursor[a.column] > 0 {
			a.cursor[a.column]--
		}
	case "down", "j":
		if a.cursor[a.column] < len(cols[a.column])-1 {
			a.cursor[a.column]++
		}
	case "enter", " ":
		col := cols[a.column]
		if len(col) == 0 {
			return m, nil
		}
		key := col[a.cursor[a.column]]
		if a.column == 0 {
			a.editor.Assign(key)
		} else {
			a.editor.Unassign(key)
		}
		if n := len(a.columns()[a.column]); a.cursor[a.column] >= n {
			a.cursor[a.column] = max(n-1, 0)
		}
	case "ctrl+s":
		if !a.editor.HasChanges() {
			return m, nil
		}
		a.saving = true
		p, ctx, f, ed := m.list.page, m.ctx, a.form, a.editor
		next := m.start(func() tea.Msg {
			return assignSavedMsg{err: p.SaveEdit(ctx, f, ed)}
		})
		return m, next
	}
	return m, nil
}

func (m Model) assignSaved(msg assignSavedMsg) (tea.Model, tea.Cmd) {
	if m.viewMode != ViewAssign {
		return m, nil
	}
	m.assign.saving = false
	if msg.err != nil {
		return m, nil
	}
	m.viewMode = ViewList
	return m, nil
}
