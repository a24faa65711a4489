// Package mcpserver exposes the scan pipeline as an MCP tool so an
// MCP-speaking client (an agent, an editor integration) can trigger a
// dependency-confusion scan and get ScanResults back as structured JSON.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/depfused/depfused/internal/kit"
	"github.com/depfused/depfused/orchestrate"
)

// RegisterMCP registers the depfused_scan tool on srv, dispatching every
// call through o.
func RegisterMCP(srv *mcp.Server, o *orchestrate.Orchestrator) {
	registerScanTool(srv, o)
}

type scanRequest struct {
	Targets []string `json:"targets"`
}

func registerScanTool(srv *mcp.Server, o *orchestrate.Orchestrator) {
	tool := &mcp.Tool{
		Name:        "depfused_scan",
		Description: "Scan one or more URLs for dependency-confusion vulnerabilities: renders each page, extracts third-party package references from its JS, and checks the npm registry for unclaimed names or scopes.",
		InputSchema: kit.InputSchema(map[string]any{
			"targets": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Target URLs to scan. A target without an http(s) scheme is treated as https.",
			},
		}, []string{"targets"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*scanRequest)
		targets := make([]string, len(r.Targets))
		for i, t := range r.Targets {
			targets[i] = normalizeTarget(t)
		}
		return o.ScanMultiple(ctx, targets), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r scanRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func normalizeTarget(t string) string {
	if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
		return t
	}
	return "https://" + t
}
