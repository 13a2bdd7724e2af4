// ABOUTME: Login screen for the TUI
// ABOUTME: Email and password inputs submitted through the session store
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/salesdesk/nav"
)

var loginBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("170")).
	Padding(1, 3).
	Width(50)

type loginState struct {
	inputs     []textinput.Model
	focusIndex int
	err        string
	submitting bool
}

func newLoginState() loginState {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 120

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 120

	return loginState{inputs: []textinput.Model{email, password}}
}

func (l *loginState) focus() tea.Cmd {
	var cmd tea.Cmd
	for i := range l.inputs {
		if i == l.focusIndex {
			cmd = l.inputs[i].Focus()
		} else {
			l.inputs[i].Blur()
		}
	}
	return cmd
}

func (m Model) renderLoginView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("SALESDESK · Sign in"))
	s.WriteString("\n")
	for i, input := range m.login.inputs {
		if i == m.login.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}
	if m.login.submitting {
		s.WriteString("\n" + m.spinner.View() + " Signing in...")
	}
	if m.login.err != "" {
		s.WriteString("\n" + errorStyle.Render(m.login.err))
	}
	s.WriteString("\n")
	s.WriteString(renderHelp("Tab: Next field", "Enter: Sign in", "Ctrl+C: Quit"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, loginBoxStyle.Render(s.String()))
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.submitting {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.login.focusIndex = (m.login.focusIndex + 1) % len(m.login.inputs)
		next := m.login.focus()
		return m, next
	case "enter":
		email := strings.TrimSpace(m.login.inputs[0].Value())
		password := m.login.inputs[1].Value()
		if email == "" || password == "" {
			m.login.err = "Email and password are required"
			return m, nil
		}
		m.login.err = ""
		m.login.submitting = true
		store, ctx := m.deps.Session, m.ctx
		next := m.start(func() tea.Msg {
			return loginDoneMsg{err: store.Login(ctx, email, password)}
		})
		return m, next
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focusIndex], cmd = m.login.inputs[m.login.focusIndex].Update(msg)
	return m, cmd
}

// loginDone lands a signed-in user on the first screen their grants allow.
func (m Model) loginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.login.submitting = false
	if msg.err != nil {
		m.login.err = msg.err.Error()
		m.login.inputs[1].SetValue("")
		return m, nil
	}

	snap := m.deps.Session.Snapshot()
	m.menu = nav.Menu(snap.Permissions())
	m.login = newLoginState()

	d := nav.Resolve(nav.HomePath, snap)
	target := d.Route.Path
	if d.Redirect != "" {
		target = d.Redirect
	}
	for i, r := range m.menu {
		if r.Path == target {
			next := m.openTab(i)
			return m, next
		}
	}
	next := m.openTab(0)
	return m, next
}
