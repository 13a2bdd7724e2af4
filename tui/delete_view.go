// ABOUTME: Delete confirmation dialog for the TUI
// ABOUTME: Confirms removal of any entity record before calling the API
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/salesdesk/models"
)

var (
	dangerColor = lipgloss.Color("9")

	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(dangerColor).
			Padding(1, 3).
			Width(56).
			Align(lipgloss.Center)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Padding(0, 2)
)

type deleteState struct {
	id       models.ID
	label    string
	fromView ViewMode
}

func (m Model) confirmDelete(row int) (tea.Model, tea.Cmd) {
	p := m.list.page
	id, err := p.RecordID(row)
	if err != nil {
		return m, nil
	}
	m.del = deleteState{id: id, label: p.RecordLabel(row), fromView: m.viewMode}
	if !p.ConfirmDelete() {
		return m.performDelete()
	}
	m.viewMode = ViewConfirmDelete
	return m, nil
}

func (m Model) renderConfirmDeleteView() string {
	entity := m.list.page.Schema().Entity

	heading := lipgloss.NewStyle().Foreground(dangerColor).Bold(true).
		Render(fmt.Sprintf("Delete %s %s?", entity, m.del.id))
	record := fieldValueStyle.Render(m.del.label)
	note := disabledStyle.Render("The record is removed on the server and the list reloads.")

	yes := buttonStyle.Background(dangerColor).MarginRight(2).Render("y  delete")
	no := buttonStyle.Background(lipgloss.Color("8")).Render("n  keep")

	body := lipgloss.JoinVertical(lipgloss.Center,
		heading,
		"",
		record,
		"",
		note,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, yes, no),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, confirmBoxStyle.Render(body))
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := strings.ToLower(msg.String())
	if key == "y" {
		return m.performDelete()
	}
	if key == "n" || key == "esc" {
		m.viewMode = m.del.fromView
	}
	return m, nil
}

// performDelete removes the record; the page re-queries and reports the
// outcome through the status bar.
func (m Model) performDelete() (tea.Model, tea.Cmd) {
	p, ctx, id := m.list.page, m.ctx, m.del.id
	m.viewMode = ViewList
	next := m.start(func() tea.Msg {
		return deletedMsg{err: p.Delete(ctx, id)}
	})
	return m, next
}
