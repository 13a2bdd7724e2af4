// ABOUTME: Wallet screen for the TUI
// ABOUTME: Personal ledger paging, or all wallets and payout processing for admins
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/salesdesk/wallet"
)

type walletState struct {
	page   int
	view   wallet.View
	loaded bool
	cursor int
	err    error
}

func (m *Model) loadWallet() tea.Cmd {
	user := m.deps.Session.User()
	if user == nil {
		return nil
	}
	loader, ctx, page := m.deps.Wallet, m.ctx, m.walletSt.page
	return m.start(func() tea.Msg {
		v, err := loader.Load(ctx, *user, page)
		return walletDoneMsg{view: v, err: err}
	})
}

func (m Model) renderWalletView() string {
	w := m.walletSt
	var s strings.Builder
	s.WriteString(titleStyle.Render("WALLET"))
	s.WriteString("\n")

	switch {
	case w.err != nil:
		s.WriteString(errorStyle.Render("Failed to fetch wallet data: " + w.err.Error()))
		s.WriteString("\n")
	case !w.loaded:
		s.WriteString(m.spinner.View() + " Loading...\n")
	default:
		var body strings.Builder
		wallet.Render(&body, w.view)
		s.WriteString(body.String())
	}

	if w.view.Admin {
		if n := len(w.view.Pending); n > 0 {
			p := w.view.Pending[min(w.cursor, n-1)]
			s.WriteString(fmt.Sprintf("\nSelected payout: %s for user %s\n", p.ID, p.UserID))
		}
		s.WriteString(renderHelp("↑/↓: Select payout", "p: Process payout", "r: Refresh", "Tab: Switch", "q: Quit"))
		return s.String()
	}

	prev, next := "‹ Prev", "Next ›"
	if w.view.HasPrev() {
		prev = tabActiveStyle.Render(prev)
	} else {
		prev = disabledStyle.Render(prev)
	}
	if w.view.HasNext() {
		next = tabActiveStyle.Render(next)
	} else {
		next = disabledStyle.Render(next)
	}
	s.WriteString(fmt.Sprintf("\n%s  Page %d of %d  %s\n", prev, max(w.view.Page, 1), max(w.view.TotalPages, 1), next))
	s.WriteString(renderHelp("←/→: Page", "r: Refresh", "Tab: Switch", "q: Quit"))
	return s.String()
}

func (m Model) handleWalletKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := &m.walletSt
	switch msg.String() {
	case "r":
		next := m.loadWallet()
		return m, next
	case "right", "l":
		if w.view.HasNext() {
			w.page = w.view.Page + 1
			next := m.loadWallet()
			return m, next
		}
	case "left", "h":
		if w.view.HasPrev() {
			w.page = w.view.Page - 1
			next := m.loadWallet()
			return m, next
		}
	case "up", "k":
		if w.cursor > 0 {
			w.cursor--
		}
	case "down", "j":
		if w.cursor < len(w.view.Pending)-1 {
			w.cursor++
		}
	case "p":
		if !w.view.Admin || len(w.view.Pending) == 0 {
			return m, nil
		}
		payout := w.view.Pending[min(w.cursor, len(w.view.Pending)-1)]
		admin := m.deps.Session.User()
		if admin == nil {
			return m, nil
		}
		loader, ctx := m.deps.Wallet, m.ctx
		w.cursor = 0
		next := m.start(func() tea.Msg {
			v, err := loader.Payout(ctx, *admin, payout.UserID, payout.Amount)
			return walletDoneMsg{view: v, err: err}
		})
		return m, next
	}
	return m, nil
}
