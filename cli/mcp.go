// ABOUTME: MCP server subcommand
// ABOUTME: Serves the CRM tools over stdio using the stored session's token
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/salesdesk/handlers"
)

// MCPCommand starts the MCP server on stdio. It needs a stored session;
// log in with the CLI first.
func MCPCommand(ctx context.Context, app *App, version string) error {
	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	app.Logger.Info("starting MCP server", "user", app.Session.User().Email)

	server := handlers.NewServer(app.Pages, app.Client, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
