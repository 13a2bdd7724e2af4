// ABOUTME: Config CLI command
// ABOUTME: Shows the effective configuration and persists single-key changes
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/salesdesk/config"
)

// ConfigCommand handles `config show` and `config set <key> <value>`.
func ConfigCommand(app *App, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		c := app.Config
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "config file\t%s\n", config.ConfigPath())
		_, _ = fmt.Fprintf(w, "api_url\t%s\n", c.APIURL)
		_, _ = fmt.Fprintf(w, "timeout_seconds\t%d\n", c.TimeoutSeconds)
		_, _ = fmt.Fprintf(w, "page_size\t%d\n", c.PageSize)
		_, _ = fmt.Fprintf(w, "session_backend\t%s\n", c.SessionBackend)
		_, _ = fmt.Fprintf(w, "log_level\t%s\n", c.LogLevel)
		_, _ = fmt.Fprintf(w, "data dir\t%s\n", config.DataDir())
		_, _ = fmt.Fprintf(w, "log file\t%s\n", config.LogPath())
		return w.Flush()
	}

	if args[0] != "set" || len(args) != 3 {
		return fmt.Errorf("usage: config show | config set <key> <value>")
	}
	// Environment overrides are not written back, so start from the file.
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}
	if err := cfg.Set(args[1], args[2]); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	app.printf("✓ %s = %s\n", args[1], args[2])
	return nil
}
