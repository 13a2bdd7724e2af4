// ABOUTME: MCP prompt handlers for reusable sales workflow templates
// ABOUTME: Pipeline analysis and per-record summaries built from live API data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/salesdesk/dashboard"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/viz"
)

type PromptHandlers struct {
	pages Pages
	stats dashboard.Source
}

func NewPromptHandlers(pages Pages, stats dashboard.Source) *PromptHandlers {
	return &PromptHandlers{pages: pages, stats: stats}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "pipeline-analysis":
		return h.pipelineAnalysis(ctx)
	case "record-summary":
		return h.recordSummary(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func (h *PromptHandlers) pipelineAnalysis(ctx context.Context) (*mcp.GetPromptResult, error) {
	bundle, err := h.stats.DashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please analyze the current sales pipeline:\n\n")
	promptText.WriteString(fmt.Sprintf("Open tasks: %d\n", bundle.Stats.Tasks))
	promptText.WriteString(fmt.Sprintf("Pipeline value: %s\n\n", viz.Thousands(bundle.Stats.TotalRevenue)))
	promptText.WriteString("Pipeline by Stage:\n")
	for _, st := range viz.OrderedPipeline(bundle.Pipeline) {
		promptText.WriteString(fmt.Sprintf("  - %s: %d tasks, %s\n", models.StageLabel(st.Stage), st.Count, viz.Thousands(st.Value)))
	}
	if len(bundle.Monthly) > 0 {
		promptText.WriteString("\nMonthly revenue:\n")
		for _, m := range bundle.Monthly {
			promptText.WriteString(fmt.Sprintf("  - %s: %s (%d opportunities)\n", m.Month, viz.Thousands(m.Revenue), m.Opportunities))
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Analysis of pipeline health and stage distribution")
	promptText.WriteString("\n2. Stages where tasks appear to stall")
	promptText.WriteString("\n3. Suggestions for improving conversion to Won")

	return userPrompt("Sales pipeline analysis", promptText.String()), nil
}

func (h *PromptHandlers) recordSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	entity, id := args["entity"], args["id"]
	if entity == "" || id == "" {
		return nil, fmt.Errorf("entity and id are required")
	}
	p, ok := h.pages.Get(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity: %s", entity)
	}
	rec, err := p.Get(ctx, models.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", entity, id, err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Here is a %s record from the CRM:\n\n", p.Schema().Entity))
	for _, row := range rec.View {
		promptText.WriteString(fmt.Sprintf("%s: %s\n", row.Label, row.Value))
	}
	promptText.WriteString("\nPlease summarize this record and suggest the next sales action.")

	return userPrompt(fmt.Sprintf("Summary for %s: %s", p.Schema().Entity, rec.Label), promptText.String()), nil
}
