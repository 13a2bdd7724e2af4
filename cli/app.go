// ABOUTME: Shared wiring for CLI commands
// ABOUTME: Bundles config, API client, session store, entity registry, and the request journal
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/config"
	"github.com/harperreed/salesdesk/dashboard"
	"github.com/harperreed/salesdesk/db"
	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/notify"
	"github.com/harperreed/salesdesk/session"
	"github.com/harperreed/salesdesk/wallet"
)

// ErrNotLoggedIn is returned by commands that need a session when none is stored.
var ErrNotLoggedIn = errors.New("not logged in (run: salesdesk login)")

// App is everything a command can touch. Commands write human output to Out
// and read confirmations from In.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Client  *api.Client
	Session *session.Store
	Pages   *entities.Registry
	Dash    *dashboard.Aggregator
	Wallet  *wallet.Loader
	Notices *notify.Relay
	Journal *sql.DB

	Out io.Writer
	In  io.Reader

	// Password reads a secret without echo. Tests replace it.
	Password func(prompt string) (string, error)

	lines *bufio.Reader
}

// NewApp wires the client, session store, and controllers together. A 401
// from any endpoint expires the session; failed requests are journaled when
// journal is non-nil.
func NewApp(cfg *config.Config, logger *log.Logger, storage session.Storage, journal *sql.DB) *App {
	relay := notify.NewRelay(logger)
	client := api.New(cfg.APIURL, api.WithTimeout(cfg.Timeout()), api.WithLogger(logger.WithPrefix("api")))
	store := session.NewStore(client, storage, logger.WithPrefix("session"))
	client.SetUnauthorizedHandler(func() { store.Expire() })
	if journal != nil {
		client.SetObserver(db.Observer(journal, logger))
	}

	pages := entities.Build(client, relay, logger, cfg.PageSize)
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Session: store,
		Pages:   pages,
		Dash:    dashboard.New(client, pages, relay, logger.WithPrefix("dashboard")),
		Wallet:  wallet.NewLoader(client, relay, logger.WithPrefix("wallet")),
		Notices: relay,
		Journal: journal,
		Out:     os.Stdout,
		In:      os.Stdin,
	}
	app.Password = app.readPassword
	return app
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

// RequireSession loads the stored session and waits for its access refresh
// so permission checks see current grants.
func (a *App) RequireSession(ctx context.Context) error {
	if err := a.Session.Init(ctx); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	select {
	case <-a.Session.Refreshed():
	case <-ctx.Done():
		return ctx.Err()
	}
	if !a.Session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

// Wait lets a background access refresh finish before the process exits.
func (a *App) Wait(timeout time.Duration) {
	select {
	case <-a.Session.Refreshed():
	case <-time.After(timeout):
	}
}

func (a *App) readLine(prompt string) (string, error) {
	if a.lines == nil {
		a.lines = bufio.NewReader(a.In)
	}
	a.printf("%s", prompt)
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) readPassword(prompt string) (string, error) {
	f, ok := a.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.readLine(prompt)
	}
	a.printf("%s", prompt)
	secret, err := term.ReadPassword(int(f.Fd()))
	a.printf("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (a *App) confirm(question string) bool {
	answer, err := a.readLine(question + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
