// ABOUTME: Assembles the MCP server from the record, dashboard, resource, and prompt handlers
// ABOUTME: Shared by the mcp subcommand and the handler tests
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/salesdesk/dashboard"
)

// NewServer registers every tool, resource, and prompt over pages and stats.
func NewServer(pages Pages, stats dashboard.Source, version string) *mcp.Server {
	records := NewRecordHandlers(pages)
	dash := NewDashboardHandlers(stats)
	resources := NewResourceHandlers(pages, stats)
	prompts := NewPromptHandlers(pages, stats)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "salesdesk",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List one page of a CRM collection with optional search and filters",
	}, records.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_record_fields",
		Description: "Describe the form fields and list filters of a CRM collection",
	}, records.GetRecordFields)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_record",
		Description: "Fetch a single record with display values",
	}, records.GetRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_record",
		Description: "Create a record after validating it against the collection's form",
	}, records.CreateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_record",
		Description: "Update a record, sending only the fields that change",
	}, records.UpdateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_record",
		Description: "Delete a record by ID",
	}, records.DeleteRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard_summary",
		Description: "Load the dashboard stats, pipeline, monthly trend, and recent activity",
	}, dash.DashboardSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_graph",
		Description: "Render the sales pipeline as Graphviz DOT",
	}, dash.PipelineGraph)

	server.AddResource(&mcp.Resource{
		URI:      scheme + "dashboard",
		Name:     "dashboard",
		MIMEType: "application/json",
	}, resources.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:      scheme + "pipeline",
		Name:     "pipeline",
		MIMEType: "application/json",
	}, resources.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: scheme + "{entity}",
		Name:        "collection",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: scheme + "{entity}/{id}",
		Name:        "record",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-analysis",
		Description: "Analyze pipeline health from the dashboard stats",
	}, prompts.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "record-summary",
		Description: "Summarize one record and suggest a next action",
		Arguments: []*mcp.PromptArgument{
			{Name: "entity", Description: "Collection name", Required: true},
			{Name: "id", Description: "Record ID", Required: true},
		},
	}, prompts.GetPrompt)

	return server
}
