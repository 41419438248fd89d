// Package mcptools exposes the scoring engine as MCP tools.
//
// Every tool follows one pattern: a struct holding the services it drives,
// Definition() returning the mcp.Tool schema and Handle() answering a call.
// Domain failures come back as tool errors, never as protocol errors.
package mcptools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// optionalBool returns nil when the argument is absent.
func optionalBool(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

func optionalString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	v = strings.ToLower(strings.TrimSpace(v))
	return &v
}

// dateArg accepts YYYY-MM-DD or RFC 3339.
func dateArg(req mcp.CallToolRequest, key string) (*time.Time, error) {
	raw := strings.TrimSpace(req.GetString(key, ""))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be YYYY-MM-DD or RFC 3339, got %q", key, raw)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
