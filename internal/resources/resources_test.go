package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dcastillo/roslyn-mcp/internal/actions"
	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/dcastillo/roslyn-mcp/internal/policy"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/dcastillo/roslyn-mcp/internal/workspace"
)

type passResolver struct{}

func (passResolver) ResolveSolution(path string) (string, error) { return path, nil }

type noopProvider struct{}

func (noopProvider) LoadWorkspace(context.Context, string) (string, error) { return "ws-1", nil }
func (noopProvider) FindCodeFixes(context.Context, string, provider.Scope) ([]provider.Descriptor, error) {
	return nil, nil
}
func (noopProvider) FindRefactorings(context.Context, string, provider.Location) ([]provider.Descriptor, error) {
	return nil, nil
}
func (noopProvider) FindCleanupRules(context.Context, string) ([]string, error) { return nil, nil }
func (noopProvider) MaterializeEdit(context.Context, string, string) (*provider.ChangeSet, error) {
	return nil, nil
}
func (noopProvider) CommitEdit(context.Context, string, string) (string, error) { return "", nil }
func (noopProvider) ApplyCleanupRule(context.Context, string, string, provider.Scope) (string, *provider.ChangeSet, error) {
	return "", nil, nil
}
func (noopProvider) ComputeRename(context.Context, string, string, string) (*provider.ChangeSet, error) {
	return nil, nil
}

func newHandler(t *testing.T, selected bool) *Handler {
	t.Helper()
	registry := actions.NewRegistry()
	store := workspace.NewStore(passResolver{}, noopProvider{})
	store.OnInvalidate(registry.ClearAll)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := orchestrator.New(store, registry, policy.Default(), noopProvider{}, nil, log)

	if selected {
		if _, err := orch.SelectSolution(context.Background(), "/work/app.sln"); err != nil {
			t.Fatalf("setup: select solution: %v", err)
		}
	}
	return NewHandler(orch)
}

func readStatus(t *testing.T, h *Handler) status {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "roslyn://workspace/status"

	contents, err := h.HandleStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleStatus failed: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("unexpected contents type %T", contents[0])
	}
	if text.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", text.MIMEType)
	}

	var st status
	if err := json.Unmarshal([]byte(text.Text), &st); err != nil {
		t.Fatalf("status is not valid JSON: %v\n%s", err, text.Text)
	}
	return st
}

func TestHandleStatus_NoSolution(t *testing.T) {
	h := newHandler(t, false)

	st := readStatus(t, h)
	if st.Selected {
		t.Error("Selected should be false before select_solution")
	}
	if st.Profile != "default" || st.MaxRisk != "moderate" {
		t.Errorf("unexpected profile fields: %+v", st)
	}
	if st.SolutionPath != "" {
		t.Errorf("SolutionPath should be empty, got %q", st.SolutionPath)
	}
}

func TestHandleStatus_WithSolution(t *testing.T) {
	h := newHandler(t, true)

	st := readStatus(t, h)
	if !st.Selected {
		t.Error("Selected should be true after select_solution")
	}
	if st.SolutionPath != "/work/app.sln" || st.Version != 1 {
		t.Errorf("unexpected session fields: %+v", st)
	}
}

func TestStatusResource_Definition(t *testing.T) {
	h := newHandler(t, false)

	res := h.StatusResource()
	if res.URI != "roslyn://workspace/status" {
		t.Errorf("URI = %q", res.URI)
	}
	if !strings.Contains(res.Name, "Status") {
		t.Errorf("Name = %q", res.Name)
	}
}
