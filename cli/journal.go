// ABOUTME: Request journal CLI command
// ABOUTME: Lists recently failed API requests and prunes old entries
package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/salesdesk/db"
)

// JournalCommand prints the newest failed requests. --prune-days removes
// older entries first.
func JournalCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Maximum entries")
	pruneDays := fs.Int("prune-days", 0, "Delete entries older than this many days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if app.Journal == nil {
		return fmt.Errorf("request journal is not open")
	}

	if *pruneDays > 0 {
		n, err := db.PruneBefore(app.Journal, time.Now().AddDate(0, 0, -*pruneDays))
		if err != nil {
			return err
		}
		app.printf("✓ Pruned %d entr(ies)\n", n)
	}

	records, err := db.RecentFailures(app.Journal, *limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		app.printf("No failed requests recorded\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tMETHOD\tPATH\tSTATUS\tDURATION\tERROR\tREQUEST")
	_, _ = fmt.Fprintln(w, "----\t------\t----\t------\t--------\t-----\t-------")
	for _, r := range records {
		status := "-"
		if r.Status > 0 {
			status = fmt.Sprint(r.Status)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.Method, r.Path, status, r.Duration, r.Error, r.RequestID)
	}
	return w.Flush()
}
