package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/civic/internal/events"
	"github.com/kalambet/civic/internal/reports"
	"github.com/kalambet/civic/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Events  *events.Service
	Reports *reports.Service
	Version string
}

// NewMCPServer creates an MCP server exposing event search, recommendations
// and statistics to agents, plus recent issue reports when Reports is set.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"civic",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("civic: community events directory with search and personalised recommendations."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_events",
			mcp.WithDescription("Search active community events by text, category and date range."),
			mcp.WithString("query", mcp.Description("Text to match in title, description or location")),
			mcp.WithString("category", mcp.Description("Exact category name")),
			mcp.WithString("from", mcp.Description("Earliest event date, YYYY-MM-DD or RFC 3339")),
			mcp.WithString("to", mcp.Description("Latest event date, YYYY-MM-DD or RFC 3339")),
			mcp.WithString("sort", mcp.Description("Order: date, priority or popularity")),
			mcp.WithString("session_id", mcp.Description("Session to record the search under")),
			mcp.WithNumber("user_id", mcp.Description("Signed-in user to record the search under")),
		),
		mcpSearchEvents(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_events",
			mcp.WithDescription("Recommend upcoming events for a user or session based on their recent searches."),
			mcp.WithString("session_id", mcp.Description("Anonymous session id")),
			mcp.WithNumber("user_id", mcp.Description("Signed-in user id")),
		),
		mcpRecommendEvents(deps),
	)

	s.AddTool(
		mcp.NewTool("event_stats",
			mcp.WithDescription("Return event totals and per-category counts."),
		),
		mcpEventStats(deps),
	)

	if deps.Reports != nil {
		s.AddTool(
			mcp.NewTool("recent_reports",
				mcp.WithDescription("List the newest issue reports filed by residents, newest first."),
				mcp.WithNumber("count", mcp.Description("How many reports to return, 1 to 100 (default 5)")),
			),
			mcpRecentReports(deps),
		)
	}

	s.AddResource(
		mcp.NewResource(
			"events://categories",
			"Event Categories",
			mcp.WithResourceDescription("Distinct categories of active events"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCategories(deps),
	)

	return s
}

func mcpIdentity(req mcp.CallToolRequest) storage.Identity {
	id := storage.Identity{SessionID: strings.TrimSpace(req.GetString("session_id", ""))}
	if uid := req.GetInt("user_id", 0); uid > 0 {
		u := int64(uid)
		id.UserID = &u
	}
	return id
}

func mcpSearchEvents(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := events.Query{
			Term:     req.GetString("query", ""),
			Category: strings.TrimSpace(req.GetString("category", "")),
			Sort:     req.GetString("sort", ""),
		}
		var err error
		if q.From, err = parseDate(req.GetString("from", "")); err != nil {
			return mcpError(fmt.Sprintf("invalid from: %v", err)), nil
		}
		if q.To, err = parseDate(req.GetString("to", "")); err != nil {
			return mcpError(fmt.Sprintf("invalid to: %v", err)), nil
		}
		if q.Category != "" {
			// Refreshes the known category set.
			if _, err := deps.Events.Categories(); err != nil {
				return mcpError(fmt.Sprintf("search failed: %v", err)), nil
			}
			if !deps.Events.KnownCategory(q.Category) {
				return mcpError(fmt.Sprintf("unknown category %q", q.Category)), nil
			}
		}

		res, err := deps.Events.Search(ctx, mcpIdentity(req), q)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcpJSON(res)
	}
}

func mcpRecommendEvents(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		recs, err := deps.Events.Recommend(ctx, mcpIdentity(req))
		if err != nil {
			return mcpError(fmt.Sprintf("recommend failed: %v", err)), nil
		}
		if len(recs) == 0 {
			return mcpText("[]"), nil
		}
		return mcpJSON(recs)
	}
}

func mcpEventStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Events.Statistics()
		if err != nil {
			return mcpError(fmt.Sprintf("stats failed: %v", err)), nil
		}
		return mcpJSON(statsMap(stats))
	}
}

func mcpRecentReports(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n := req.GetInt("count", 0)
		if n < 0 || n > 100 {
			return mcpError("count must be between 1 and 100"), nil
		}
		recent, err := deps.Reports.Recent(n)
		if err != nil {
			return mcpError(fmt.Sprintf("listing reports failed: %v", err)), nil
		}
		return mcpJSON(nonNil(recent.ToSlice()))
	}
}

func mcpResourceCategories(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cats, err := deps.Events.Categories()
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}

		b, err := json.Marshal(nonNil(cats.ToSlice()))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal categories: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
