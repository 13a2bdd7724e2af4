// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Read-only access to collections, single records, and the dashboard via salesdesk:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/salesdesk/dashboard"
	"github.com/harperreed/salesdesk/models"
)

const scheme = "salesdesk://"

type ResourceHandlers struct {
	pages Pages
	stats dashboard.Source
}

func NewResourceHandlers(pages Pages, stats dashboard.Source) *ResourceHandlers {
	return &ResourceHandlers{pages: pages, stats: stats}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, scheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", scheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, scheme), "/")
	switch parts[0] {
	case "dashboard":
		return h.readDashboard(ctx, uri, false)
	case "pipeline":
		return h.readDashboard(ctx, uri, true)
	}

	p, ok := h.pages.Get(parts[0])
	if !ok {
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if len(parts) == 1 || parts[1] == "" {
		if err := p.Fetch(ctx, p.StageClear()); err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", p.Name(), err)
		}
		return jsonResult(uri, rows(p))
	}
	rec, err := p.Get(ctx, models.ID(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", p.Name(), parts[1], err)
	}
	return jsonResult(uri, recordOutput(p.Name(), rec))
}

func (h *ResourceHandlers) readDashboard(ctx context.Context, uri string, pipelineOnly bool) (*mcp.ReadResourceResult, error) {
	bundle, err := h.stats.DashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	if pipelineOnly {
		return jsonResult(uri, bundle.Pipeline)
	}
	return jsonResult(uri, bundle)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
