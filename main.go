// ABOUTME: Entry point for the salesdesk CLI, TUI, and MCP server
// ABOUTME: Loads config, wires the session store and journal, and routes commands
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/salesdesk/cli"
	"github.com/harperreed/salesdesk/config"
	"github.com/harperreed/salesdesk/db"
	"github.com/harperreed/salesdesk/logging"
	"github.com/harperreed/salesdesk/session"
	"github.com/harperreed/salesdesk/tui"
)

const version = "0.2.0"

// command runs against a wired App.
type command func(ctx context.Context, app *cli.App, args []string) error

var crmCommands = map[string]command{
	"list":        cli.ListCommand,
	"view":        cli.ViewCommand,
	"add":         cli.AddCommand,
	"update":      cli.UpdateCommand,
	"delete":      cli.DeleteCommand,
	"permissions": cli.PermissionsCommand,
	"roles":       cli.RolesCommand,
	"set-active":  cli.SetActiveCommand,
}

var topCommands = map[string]command{
	"login":          cli.LoginCommand,
	"register":       cli.RegisterCommand,
	"logout":         cli.LogoutCommand,
	"whoami":         cli.WhoamiCommand,
	"refresh-access": cli.RefreshAccessCommand,
	"dashboard":      cli.DashboardCommand,
	"wallet":         cli.WalletCommand,
	"journal": func(_ context.Context, app *cli.App, args []string) error {
		return cli.JournalCommand(app, args)
	},
	"config": func(_ context.Context, app *cli.App, args []string) error {
		return cli.ConfigCommand(app, args)
	},
	"mcp": func(ctx context.Context, app *cli.App, _ []string) error {
		return cli.MCPCommand(ctx, app, version)
	},
	"tui": runTUI,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	apiURL := flag.String("api-url", "", "API base URL (overrides config)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("salesdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	name, rest := args[0], args[1:]
	run, ok := topCommands[name]
	if name == "crm" {
		if len(rest) == 0 {
			fmt.Println("Error: crm requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		run, ok = crmCommands[rest[0]]
		if !ok {
			fmt.Printf("Unknown crm command: %s\n\n", rest[0])
			printUsage()
			os.Exit(1)
		}
		rest = rest[1:]
	} else if !ok {
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := execute(name, *apiURL, run, rest); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute wires an App for one command and tears it down afterwards.
func execute(name, apiURL string, run command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// The TUI owns the terminal and MCP owns stdout, so both log to a file.
	var logger *log.Logger
	if name == "tui" || name == "mcp" {
		l, closer, err := logging.OpenFile(config.LogPath(), cfg.LogLevel)
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = l
	} else {
		logger = logging.New(os.Stderr, cfg.LogLevel)
	}

	storage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	if c, ok := storage.(io.Closer); ok {
		defer c.Close()
	}

	journal, err := db.OpenDatabase(config.JournalPath())
	if err != nil {
		logger.Warn("request journal unavailable", "err", err)
		journal = nil
	}
	if journal != nil {
		defer closeJournal(journal, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, logger, storage, journal)
	err = run(ctx, app, args)
	app.Wait(2 * time.Second)
	return err
}

func openStorage(cfg *config.Config) (session.Storage, error) {
	if cfg.SessionBackend == config.BackendBadger {
		s, err := session.OpenBadgerStorage(session.DefaultBadgerDir(config.DataDir()))
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		return s, nil
	}
	return session.NewFileStorage(session.DefaultFilePath(config.DataDir())), nil
}

func closeJournal(journal *sql.DB, logger *log.Logger) {
	if err := journal.Close(); err != nil {
		logger.Debug("journal close failed", "err", err)
	}
}

func runTUI(ctx context.Context, app *cli.App, _ []string) error {
	if err := app.Session.Init(ctx); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	return tui.Run(ctx, tui.Deps{
		Session: app.Session,
		Pages:   app.Pages,
		Dash:    app.Dash,
		Wallet:  app.Wallet,
		Notices: app.Notices,
		Logger:  app.Logger,
	})
}

func printUsage() {
	fmt.Printf(`salesdesk v%s - Sales CRM admin client

USAGE:
  salesdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --api-url <url>        API base URL (default from config)

COMMANDS:
  login                  Sign in and store the session
    --email <email>          Account email (prompted for password)
  register               Create an account and sign in
    --email <email> --first-name <name> --last-name <name> --role <role>
  logout                 Sign out and clear the stored session
  whoami                 Show the signed-in user and screens they can open
  refresh-access         Re-read permissions from the server

  tui                    Start the interactive terminal UI
  mcp                    Start MCP server over stdio (needs a session)

  dashboard              Show stats, the pipeline funnel, and recent activity
    --dot                    Print the pipeline as a Graphviz graph
  wallet                 Show your wallet, or all wallets for admins
    --page <n>               Transactions page
  wallet payout          Process a payout (admin only)
    --user <id> --amount <n>

  journal                List recent failed API requests
    --limit <n>              Max rows (default: 20)
    --prune-days <n>         Delete entries older than n days
  config                 Show or change configuration
    config set <key> <value>

CRM COMMANDS:
  Entities: leads, tasks, outlets, activities, users, roles

  salesdesk crm list <entity>
    --search <text>          Free-text search
    --filter key=value       Filter (repeatable)
    --page <n>               Page number
  salesdesk crm view <entity> <id>
  salesdesk crm add <entity> --set key=value ...
  salesdesk crm update <entity> <id> --set key=value ...
    Only changed fields are sent
  salesdesk crm delete <entity> <id> [--yes]

  salesdesk crm permissions <role-id> --add A,B --remove C
  salesdesk crm roles <user-id> --add KEY --remove KEY
  salesdesk crm set-active <user-id> --active=true|false

EXAMPLES:
  # Sign in
  salesdesk login --email rep@acme.co

  # New leads matching "acme"
  salesdesk crm list leads --search acme --filter status=new

  # Move a task forward
  salesdesk crm update tasks 4 --set stage=NEGOTIATION --set probability=60

`, version)
}
