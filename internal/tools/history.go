package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dcastillo/roslyn-mcp/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
)

// HistoryReader is the slice of the journal the history tool needs.
type HistoryReader interface {
	Recent(ctx context.Context, solutionPath string, limit int) ([]history.Entry, error)
}

// MutationHistoryTool handles the mutation_history MCP tool.
type MutationHistoryTool struct {
	journal HistoryReader
}

// NewMutationHistoryTool creates a MutationHistoryTool.
func NewMutationHistoryTool(journal HistoryReader) *MutationHistoryTool {
	return &MutationHistoryTool{journal: journal}
}

// Definition returns the MCP tool definition for registration.
func (t *MutationHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("mutation_history",
		mcp.WithDescription(
			"List recently applied mutations (code fixes, refactorings, cleanup "+
				"runs, renames) from the journal, most recent first.",
		),
		mcp.WithString("solution_path",
			mcp.Description("Filter to one solution. Omit for all solutions."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20)."),
		),
	)
}

// Handle processes the mutation_history tool call.
func (t *MutationHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	solutionPath := req.GetString("solution_path", "")
	limit := intArg(req, "limit", 20)

	entries, err := t.journal.Recent(ctx, solutionPath, limit)
	if err != nil {
		return nil, fmt.Errorf("reading mutation history: %w", err)
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("# Mutation History\n\nNo mutations recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Mutation History (%d)\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- **%s** %s: `%s` (v%d, %d file(s), %s)\n",
			e.Operation, e.Subject, e.SolutionPath, e.Version, e.ChangedFiles,
			e.AppliedAt.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(b.String()), nil
}
