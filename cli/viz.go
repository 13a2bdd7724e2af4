// ABOUTME: Dashboard CLI command
// ABOUTME: Prints the text dashboard or exports the pipeline as a Graphviz graph
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/salesdesk/viz"
)

// DashboardCommand loads the stats bundle. With --dot it prints the
// pipeline graph instead of the text dashboard.
func DashboardCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	dot := fs.Bool("dot", false, "Print the pipeline as Graphviz DOT")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	if err := app.Dash.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	bundle := app.Dash.Bundle()

	var out string
	if *dot {
		graph, err := viz.PipelineGraph(ctx, bundle)
		if err != nil {
			return err
		}
		out = graph
	} else {
		out = viz.RenderDashboard(bundle)
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(out), 0644)
	}
	app.printf("%s\n", out)
	return nil
}
