// Package tools implements the MCP tool handlers exposed by the server.
//
// Each tool is a struct that receives its dependencies via the
// constructor and exposes a Definition for registration plus a Handle
// compatible with mcp-go's CallToolRequest signature. One file per
// tool.
//
// Error discipline: a *fault.Fault is a caller-visible outcome and is
// rendered as a tool error result; anything else is an internal
// failure and propagates as a Go error for the MCP layer to report.
package tools

import (
	"fmt"
	"strings"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/mark3labs/mcp-go/mcp"
)

// faultResult splits an operation error: structured faults become tool
// error results the caller can branch on, everything else propagates
// as an internal error.
func faultResult(err error) (*mcp.CallToolResult, error) {
	if f := fault.As(err); f != nil {
		return mcp.NewToolResultError(f.Error()), nil
	}
	return nil, err
}

// intArg extracts an integer argument from a tool request.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// hasArg reports whether the caller supplied the argument at all.
func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// fileList renders changed file paths as a markdown bullet list.
func fileList(files []string) string {
	if len(files) == 0 {
		return "_no files changed_\n"
	}
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}
	return b.String()
}
