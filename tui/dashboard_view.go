// ABOUTME: Dashboard screen for the TUI
// ABOUTME: Renders the stats bundle and opens quick-create forms
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/salesdesk/dashboard"
	"github.com/harperreed/salesdesk/viz"
)

func (m *Model) loadDashboard() tea.Cmd {
	dash, ctx := m.deps.Dash, m.ctx
	return m.start(func() tea.Msg {
		return dashDoneMsg{err: dash.Refresh(ctx)}
	})
}

func (m Model) renderDashboardView() string {
	var s strings.Builder
	if err := m.deps.Dash.Err(); err != nil {
		s.WriteString(errorStyle.Render("Showing defaults: " + err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(viz.RenderDashboard(m.deps.Dash.Bundle()))
	s.WriteString("\n")

	help := make([]string, 0, len(dashboard.QuickActions)+3)
	for i, name := range dashboard.QuickActions {
		help = append(help, fmt.Sprintf("%d: New %s", i+1, strings.TrimSuffix(name, "s")))
	}
	help = append(help, "r: Refresh", "Tab: Switch", "q: Quit")
	s.WriteString(renderHelp(help...))
	return s.String()
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "r" {
		next := m.loadDashboard()
		return m, next
	}
	for i, name := range dashboard.QuickActions {
		if key == fmt.Sprint(i+1) {
			f, err := m.deps.Dash.QuickForm(name)
			if err != nil {
				return m, nil
			}
			return m.openForm(f, true)
		}
	}
	return m, nil
}
