package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/salesdesk/forms"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

type detailState struct {
	row   int
	label string
	rows  []forms.ViewRow
}

func (m Model) openDetail(row int) (tea.Model, tea.Cmd) {
	rows, err := m.list.page.View(row)
	if err != nil {
		return m, nil
	}
	m.detail = detailState{row: row, label: m.list.page.RecordLabel(row), rows: rows}
	m.viewMode = ViewDetail
	return m, nil
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render(strings.ToUpper(m.list.page.Schema().Entity) + ": " + forms.OrNA(m.detail.label)))
	s.WriteString("\n")

	for _, r := range m.detail.rows {
		s.WriteString(m.renderField(r.Label, r.Value))
	}
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderDetailHelp())
	return s.String()
}

func (m Model) renderField(label, value string) string {
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{"e: Edit", "d: Delete"}
	if t := m.list.page.AssignmentTitle(); t != "" {
		help = append(help, "a: "+t)
	}
	help = append(help, "Esc: Back", "q: Quit")
	return renderHelp(help...)
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
	case "e":
		f, err := m.list.page.EditForm(m.detail.row)
		if err != nil {
			return m, nil
		}
		return m.openForm(f, false)
	case "d":
		return m.confirmDelete(m.detail.row)
	case "a":
		return m.openAssign(m.detail.row)
	}
	return m, nil
}
