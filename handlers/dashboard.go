// ABOUTME: Dashboard MCP tool handlers
// ABOUTME: Implements dashboard_summary and pipeline_graph over the stats bundle
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

type DashboardHandlers struct {
	src dashboard.Source
}

func NewDashboardHandlers(src dashboard.Source) *DashboardHandlers {
	return &DashboardHandlers{src: src}
}

type DashboardSummaryInput struct {
	Text bool `json:"text,omitempty" jsonschema:"Also include a plain-text rendering of the dashboard"`
}

type DashboardSummaryOutput struct {
	Bundle models.DashboardBundle `json:"dashboard"`
	Text   string                 `json:"text,omitempty"`
}

func (h *DashboardHandlers) DashboardSummary(ctx context.Context, _ *mcp.CallToolRequest, input DashboardSummaryInput) (*mcp.CallToolResult, DashboardSummaryOutput, error) {
	bundle, err := h.src.DashboardStats(ctx)
	if err != nil {
		return nil, DashboardSummaryOutput{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	out := DashboardSummaryOutput{Bundle: bundle}
	if input.Text {
		out.Text = viz.RenderDashboard(bundle)
	}
	return nil, out, nil
}

type PipelineGraphInput struct{}

type PipelineGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *DashboardHandlers) PipelineGraph(ctx context.Context, _ *mcp.CallToolRequest, _ PipelineGraphInput) (*mcp.CallToolResult, PipelineGraphOutput, error) {
	bundle, err := h.src.DashboardStats(ctx)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	dot, err := viz.PipelineGraph(ctx, bundle)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	edges := strings.Count(dot, "->")
	return nil, PipelineGraphOutput{
		DOTSource: dot,
		NodeCount: len(models.TaskStages),
		EdgeCount: edges,
	}, nil
}
