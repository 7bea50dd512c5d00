package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/civic/internal/events"
	"github.com/kalambet/civic/internal/reports"
	"github.com/kalambet/civic/internal/storage"
)

func newTestMCPDeps(t *testing.T) (MCPDeps, *events.Service) {
	t.Helper()
	svc, store := newTestService(t)
	return MCPDeps{
		Events:  svc,
		Reports: reports.NewServiceWithClock(store, fixedClock{testNow}),
		Version: "test",
	}, svc
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestMCPTool_SearchEvents(t *testing.T) {
	deps, svc := newTestMCPDeps(t)
	seedEvent(t, svc, "Library book sale", "Culture", 2, 1)
	seedEvent(t, svc, "Pothole repair", "Infrastructure", 4, 3)

	result := callTool(t, mcpSearchEvents(deps), makeCallToolRequest("search_events", map[string]any{
		"query":      "library",
		"session_id": "agent-session",
	}))
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var res events.SearchResult
	if err := json.Unmarshal([]byte(toolText(t, result)), &res); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Title != "Library book sale" {
		t.Fatalf("events = %+v", res.Events)
	}
	if len(res.RecentSearches) != 1 || res.RecentSearches[0] != "library" {
		t.Errorf("recent searches = %v, want [library]", res.RecentSearches)
	}
}

func TestMCPTool_SearchEvents_UnknownCategory(t *testing.T) {
	deps, svc := newTestMCPDeps(t)
	seedEvent(t, svc, "Library book sale", "Culture", 2, 1)

	result := callTool(t, mcpSearchEvents(deps), makeCallToolRequest("search_events", map[string]any{
		"category": "Sports",
	}))
	if !result.IsError {
		t.Fatal("expected error for unknown category")
	}
	if !strings.Contains(toolText(t, result), "Sports") {
		t.Errorf("error = %q, want category named", toolText(t, result))
	}
}

func TestMCPTool_SearchEvents_InvalidSort(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	result := callTool(t, mcpSearchEvents(deps), makeCallToolRequest("search_events", map[string]any{
		"sort": "random",
	}))
	if !result.IsError {
		t.Fatal("expected error for invalid sort")
	}
}

func TestMCPTool_RecommendEvents(t *testing.T) {
	deps, svc := newTestMCPDeps(t)

	result := callTool(t, mcpRecommendEvents(deps), makeCallToolRequest("recommend_events", nil))
	if result.IsError || toolText(t, result) != "[]" {
		t.Fatalf("expected empty array, got %q", toolText(t, result))
	}

	seedEvent(t, svc, "Water leak", "Infrastructure", 1, 4)
	seedEvent(t, svc, "Choir night", "Culture", 5, 1)

	result = callTool(t, mcpRecommendEvents(deps), makeCallToolRequest("recommend_events", map[string]any{
		"user_id": float64(7),
	}))
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var recs []events.Recommendation
	if err := json.Unmarshal([]byte(toolText(t, result)), &recs); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(recs) != 2 || recs[0].Event.Title != "Water leak" {
		t.Errorf("recommendations = %+v", recs)
	}
}

func TestMCPTool_EventStats(t *testing.T) {
	deps, svc := newTestMCPDeps(t)
	seedEvent(t, svc, "Water leak", "Infrastructure", 1, 4)
	seedEvent(t, svc, "Old fair", "Culture", -2, 1)

	result := callTool(t, mcpEventStats(deps), makeCallToolRequest("event_stats", nil))
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var stats map[string]int
	if err := json.Unmarshal([]byte(toolText(t, result)), &stats); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if stats["Total"] != 2 || stats["Upcoming"] != 1 || stats["Past"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestMCPTool_RecentReports(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	for _, d := range []string{"first", "second", "third"} {
		if _, err := deps.Reports.Submit(1, storage.Report{Location: "Pier", Category: "Public Safety", Description: d}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	result := callTool(t, mcpRecentReports(deps), makeCallToolRequest("recent_reports", map[string]any{"count": float64(2)}))
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var got []storage.Report
	if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(got) != 2 || got[0].Description != "third" || got[1].Description != "second" {
		t.Errorf("recent = %+v", got)
	}

	result = callTool(t, mcpRecentReports(deps), makeCallToolRequest("recent_reports", map[string]any{"count": float64(500)}))
	if !result.IsError {
		t.Error("expected error for count over 100")
	}
}

func TestMCPResource_Categories(t *testing.T) {
	deps, svc := newTestMCPDeps(t)
	seedEvent(t, svc, "Water leak", "Infrastructure", 1, 4)

	contents, err := mcpResourceCategories(deps)(context.Background(), makeReadResourceRequest("events://categories"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var cats []string
	if err := json.Unmarshal([]byte(tc.Text), &cats); err != nil {
		t.Fatalf("failed to parse categories: %v", err)
	}
	if len(cats) != 1 || cats[0] != "Infrastructure" {
		t.Errorf("categories = %v", cats)
	}
}

func TestNewMCPServer_ListsTools(t *testing.T) {
	deps, _ := newTestMCPDeps(t)
	s := NewMCPServer(deps)

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	for _, name := range []string{"search_events", "recommend_events", "event_stats", "recent_reports"} {
		if !strings.Contains(string(b), `"`+name+`"`) {
			t.Errorf("tool %q not listed in %s", name, b)
		}
	}
}
