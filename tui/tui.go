// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Root model routing between login, dashboard, entity lists, forms, and wallet screens
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/harperreed/salesdesk/dashboard"
	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/listing"
	"github.com/harperreed/salesdesk/nav"
	"github.com/harperreed/salesdesk/notify"
	"github.com/harperreed/salesdesk/session"
	"github.com/harperreed/salesdesk/wallet"
)

// ViewMode represents the current TUI screen
type ViewMode int

const (
	ViewLogin ViewMode = iota
	ViewDashboard
	ViewList
	ViewDetail
	ViewForm
	ViewConfirmDelete
	ViewAssign
	ViewWallet
)

// Deps is everything the screens read from and write through.
type Deps struct {
	Session *session.Store
	Pages   *entities.Registry
	Dash    *dashboard.Aggregator
	Wallet  *wallet.Loader
	Notices *notify.Relay
	Logger  *log.Logger
}

// Messages produced by async commands.
type (
	sessionMsg session.Snapshot
	noticeMsg  notify.Notice

	loginDoneMsg struct{ err error }
	listDoneMsg  struct {
		page string
		err  error
	}
	dashDoneMsg   struct{ err error }
	walletDoneMsg struct {
		view wallet.View
		err  error
	}
	savedMsg struct {
		err error
	}
	deletedMsg   struct{ err error }
	loggedOutMsg struct{}
)

// Model is the main bubbletea model
type Model struct {
	ctx  context.Context
	deps Deps

	viewMode ViewMode
	menu     []nav.Route
	tab      int

	login    loginState
	list     listState
	detail   detailState
	form     formState
	del      deleteState
	assign   assignState
	walletSt walletState

	spinner    spinner.Model
	busy       int
	status     *notify.Notice
	initCmd    tea.Cmd
	signingOut bool

	// UI state
	width  int
	height int
}

// NewModel creates a model that starts on the login screen, or on the first
// menu entry when the store already holds a session.
func NewModel(ctx context.Context, deps Deps) Model {
	m := Model{
		ctx:     ctx,
		deps:    deps,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   100,
		height:  30,
	}
	m.login = newLoginState()
	if deps.Session.IsAuthenticated() {
		m.menu = nav.Menu(deps.Session.Permissions())
		m.initCmd = m.openTab(0)
	} else {
		m.initCmd = m.login.focus()
	}
	return m
}

// Run starts the program and wires session changes and notices into it.
func Run(ctx context.Context, deps Deps) error {
	m := NewModel(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	deps.Notices.SetTarget(notify.Func(func(n notify.Notice) { p.Send(noticeMsg(n)) }))
	defer deps.Notices.SetTarget(nil)
	deps.Session.Subscribe(func(s session.Snapshot) { p.Send(sessionMsg(s)) })

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// start marks one request in flight and keeps the spinner turning.
func (m *Model) start(cmd tea.Cmd) tea.Cmd {
	m.busy++
	if m.busy == 1 {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

func (m *Model) done() {
	if m.busy > 0 {
		m.busy--
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		if m.busy == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case noticeMsg:
		n := notify.Notice(msg)
		m.status = &n
		return m, nil
	case sessionMsg:
		return m.handleSession(session.Snapshot(msg))
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKeyPress(msg)
	}
	return m.handleResult(msg)
}

// handleSession sends the user back to login when the session ends anywhere,
// and rebuilds the menu when permissions change.
func (m Model) handleSession(snap session.Snapshot) (tea.Model, tea.Cmd) {
	if !snap.Authenticated() {
		if m.viewMode == ViewLogin {
			return m, nil
		}
		reason := "Your session has ended. Please sign in again."
		if m.signingOut {
			reason = ""
		}
		return m.showLogin(reason)
	}
	if m.viewMode == ViewLogin {
		return m, nil
	}
	current := m.currentRoute()
	m.menu = nav.Menu(snap.Permissions())
	for i, r := range m.menu {
		if r.Path == current.Path {
			m.tab = i
			return m, nil
		}
	}
	// The open screen is no longer granted.
	next := m.openTab(0)
	return m, next
}

// showLogin drops every screen and returns to a fresh login form.
func (m Model) showLogin(reason string) (tea.Model, tea.Cmd) {
	m.viewMode = ViewLogin
	m.menu = nil
	m.busy = 0
	m.status = nil
	m.login = newLoginState()
	m.login.err = reason
	next := m.login.focus()
	return m, next
}

// signOut ends the session on the server and locally. The session update
// brings the login screen back.
func (m Model) signOut() (tea.Model, tea.Cmd) {
	if m.signingOut {
		return m, nil
	}
	m.signingOut = true
	store, ctx := m.deps.Session, m.ctx
	next := m.start(func() tea.Msg {
		store.Logout(ctx)
		return loggedOutMsg{}
	})
	return m, next
}

func (m Model) handleResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.done()
		return m.loginDone(msg)
	case listDoneMsg:
		m.done()
		if !m.list.shows(msg.page) || errors.Is(msg.err, listing.ErrSuperseded) {
			return m, nil
		}
		m.list.err = msg.err
		m.list.clampCursor()
		return m, nil
	case dashDoneMsg:
		m.done()
		return m, nil
	case walletDoneMsg:
		m.done()
		if msg.err == nil {
			m.walletSt.view = msg.view
			m.walletSt.loaded = true
		}
		m.walletSt.err = msg.err
		return m, nil
	case savedMsg:
		m.done()
		return m.saved(msg)
	case loggedOutMsg:
		m.done()
		m.signingOut = false
		if m.viewMode == ViewLogin {
			return m, nil
		}
		return m.showLogin("")
	case deletedMsg:
		m.done()
		m.viewMode = ViewList
		m.list.clampCursor()
		return m, nil
	case assignLoadedMsg:
		m.done()
		return m.assignLoaded(msg)
	case assignSavedMsg:
		m.done()
		return m.assignSaved(msg)
	case pickerTickMsg:
		return m.pickerTick(msg)
	case pickerResultMsg:
		m.done()
		m.pickerResult(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit and tab switching apply where no text input has focus.
	if !m.typing() {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "L":
			if m.viewMode != ViewLogin {
				return m.signOut()
			}
		case "tab":
			if len(m.menu) > 0 && (m.viewMode == ViewList || m.viewMode == ViewDashboard || m.viewMode == ViewWallet) {
				next := m.openTab((m.tab + 1) % len(m.menu))
				return m, next
			}
		case "shift+tab":
			if len(m.menu) > 0 && (m.viewMode == ViewList || m.viewMode == ViewDashboard || m.viewMode == ViewWallet) {
				next := m.openTab((m.tab + len(m.menu) - 1) % len(m.menu))
				return m, next
			}
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewLogin:
		return m.handleLoginKeys(msg)
	case ViewDashboard:
		return m.handleDashboardKeys(msg)
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewForm:
		return m.handleFormKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case ViewAssign:
		return m.handleAssignKeys(msg)
	case ViewWallet:
		return m.handleWalletKeys(msg)
	}
	return m, nil
}

// typing reports whether keystrokes belong to a text input.
func (m Model) typing() bool {
	switch m.viewMode {
	case ViewLogin, ViewForm:
		return true
	case ViewList:
		return m.list.input != inputNone
	}
	return false
}

func (m Model) currentRoute() nav.Route {
	if m.tab < len(m.menu) {
		return m.menu[m.tab]
	}
	return nav.Route{}
}

// openTab switches to menu entry i and loads its data.
func (m *Model) openTab(i int) tea.Cmd {
	if len(m.menu) == 0 {
		m.menu = nav.Menu(m.deps.Session.Permissions())
	}
	if len(m.menu) == 0 {
		m.viewMode = ViewDashboard
		return m.loadDashboard()
	}
	if i >= len(m.menu) {
		i = 0
	}
	m.tab = i
	m.status = nil

	switch page := m.menu[i].Page; page {
	case "dashboard":
		m.viewMode = ViewDashboard
		return m.loadDashboard()
	case "wallet":
		m.viewMode = ViewWallet
		m.walletSt = walletState{page: 1}
		return m.loadWallet()
	default:
		p, ok := m.deps.Pages.Get(page)
		if !ok {
			m.viewMode = ViewDashboard
			return m.loadDashboard()
		}
		m.viewMode = ViewList
		m.list = newListState(p)
		return m.fetch(p.StageClear())
	}
}

func (m Model) View() string {
	var body string
	switch m.viewMode {
	case ViewLogin:
		return m.renderLoginView()
	case ViewDashboard:
		body = m.renderDashboardView()
	case ViewList:
		body = m.renderListView()
	case ViewDetail:
		body = m.renderDetailView()
	case ViewForm:
		body = m.renderFormView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	case ViewAssign:
		body = m.renderAssignView()
	case ViewWallet:
		body = m.renderWalletView()
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("SALESDESK"))
	s.WriteString("\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")
	s.WriteString(body)
	s.WriteString("\n")
	s.WriteString(m.renderStatusBar())
	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, r := range m.menu {
		if i == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(r.Name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(r.Name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStatusBar() string {
	var parts []string
	if m.busy > 0 {
		parts = append(parts, m.spinner.View()+" Loading...")
	}
	if m.status != nil {
		switch m.status.Level {
		case notify.Error:
			parts = append(parts, errorStyle.Render("✗ "+m.status.String()))
		case notify.Success:
			parts = append(parts, successStyle.Render("✓ "+m.status.Message))
		default:
			parts = append(parts, m.status.Message)
		}
	}
	if u := m.deps.Session.User(); u != nil {
		parts = append(parts, disabledStyle.Render(u.DisplayName()+" (L: sign out)"))
	}
	return statusBarStyle.Render(strings.Join(parts, "  │  "))
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	statusBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("238"))
)

func renderHelp(keys ...string) string {
	return helpStyle.Render(strings.Join(keys, " • "))
}
