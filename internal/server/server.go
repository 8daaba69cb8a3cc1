// Package server wires all MCP components and creates the server
// instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools and resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dcastillo/roslyn-mcp/internal/actions"
	"github.com/dcastillo/roslyn-mcp/internal/config"
	"github.com/dcastillo/roslyn-mcp/internal/history"
	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/dcastillo/roslyn-mcp/internal/policy"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/dcastillo/roslyn-mcp/internal/resources"
	"github.com/dcastillo/roslyn-mcp/internal/tools"
	"github.com/dcastillo/roslyn-mcp/internal/workspace"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools and
// resources registered against one orchestrator instance.
//
// The returned cleanup function closes the history database and must
// be called on shutdown (typically via defer). It is always non-nil
// and safe to call even when history init failed.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	// Logging goes to stderr; stdout is the MCP stdio transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// --- Policy profile ---

	profile := policy.Default()
	if cfg.ProfilePath != "" {
		loaded, err := policy.Load(cfg.ProfilePath)
		if err != nil {
			return nil, noop, fmt.Errorf("loading policy profile: %w", err)
		}
		profile = loaded
	}
	log.Info("policy profile active", "name", profile.Name, "maxRisk", profile.MaxRisk)

	// --- Core components ---

	cip := provider.NewHTTPClient(cfg.SidecarURL)
	registry := actions.NewRegistry()
	store := workspace.NewStore(cfg, cip)
	// Every version change wipes the registry, with the session lock
	// held, so no reader ever sees records from an older snapshot.
	store.OnInvalidate(registry.ClearAll)

	// --- History journal ---
	//
	// History is an independent subsystem: if it fails to initialize,
	// mutation tools keep working. We log a warning and skip the
	// history tool registration.

	cleanup := noop
	var journal *history.Store
	if !cfg.DisableHistory {
		j, err := history.Open(cfg.DataDir)
		if err != nil {
			log.Warn("mutation history disabled", "error", err)
		} else {
			journal = j
			cleanup = func() {
				if err := j.Close(); err != nil {
					log.Warn("history store close failed", "error", err)
				}
			}
		}
	}

	// Guarded assignment: a typed nil inside the interface would
	// defeat the orchestrator's nil check.
	var recorder orchestrator.Recorder
	if journal != nil {
		recorder = journal
	}
	orch := orchestrator.New(store, registry, profile, cip, recorder, log)

	// --- MCP server ---

	s := server.NewMCPServer(
		"roslyn-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Session tools ---

	selectTool := tools.NewSelectSolutionTool(orch)
	s.AddTool(selectTool.Definition(), selectTool.Handle)

	reloadTool := tools.NewReloadSolutionTool(orch)
	s.AddTool(reloadTool.Definition(), reloadTool.Handle)

	statusTool := tools.NewSolutionStatusTool(orch)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Discovery and mutation tools ---

	fixesTool := tools.NewDiscoverCodeFixesTool(orch)
	s.AddTool(fixesTool.Definition(), fixesTool.Handle)

	refactorTool := tools.NewDiscoverRefactoringsTool(orch)
	s.AddTool(refactorTool.Definition(), refactorTool.Handle)

	previewTool := tools.NewPreviewActionTool(orch)
	s.AddTool(previewTool.Definition(), previewTool.Handle)

	applyTool := tools.NewApplyActionTool(orch)
	s.AddTool(applyTool.Definition(), applyTool.Handle)

	cleanupTool := tools.NewRunCleanupTool(orch)
	s.AddTool(cleanupTool.Definition(), cleanupTool.Handle)

	renameTool := tools.NewRenameSymbolTool(orch)
	s.AddTool(renameTool.Definition(), renameTool.Handle)

	if journal != nil {
		historyTool := tools.NewMutationHistoryTool(journal)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	// --- Resources ---

	resourceHandler := resources.NewHandler(orch)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is the default cleanup when history is disabled or failed.
func noop() {}

// serverInstructions tells the AI client how to drive the server.
func serverInstructions() string {
	return `You have access to roslyn-mcp, a C# code intelligence server backed by Roslyn.

## Workflow

1. Call select_solution with a .sln/.slnx/.csproj path to load a workspace.
   The response reports a snapshot version. Every mutation advances it.
2. Discover actions:
   - discover_code_fixes(scope) scans a document, project, or the whole solution.
   - discover_refactorings(path, line, column) inspects one location.
   Each result carries an ephemeral action id and a policy decision.
3. Inspect with preview_action(action_id): no commit, version unchanged.
4. Commit with apply_action(action_id). The version advances and ALL
   previously discovered action ids become stale: re-run discovery.

## Action ids are snapshot-scoped

An action id is only valid against the snapshot it was discovered on.
After any apply_action, run_cleanup, rename_symbol, or reload_solution,
old ids fail with StaleWorkspaceSnapshot. This is not an error in your
usage; it is how the server guarantees an edit computed against one
snapshot is never applied to a different one. Just discover again.

## Policy

A policy profile gates which actions may run. Blocked actions still show
up in discovery with the reason; applying them fails PolicyBlocked or
FeatureDisabled. Do not retry blocked actions; report the reason.

## Cleanup

run_cleanup(scope) executes the profile's ordered cleanup rules as one
batch. Pass expected_version (the version you last observed) to fail
fast with WorkspaceChanged if anything mutated in between. Rules the
policy blocks are reported as warnings, not failures.

## Rename

rename_symbol(symbol_id, new_name) validates the name against C#
identifier rules first (use an @ prefix for reserved keywords) and
fails RenameConflict if the name already binds in an affected scope.

## Concurrency

If two mutations race, exactly one wins; the loser sees
StaleWorkspaceSnapshot or FixConflict. Re-discover and retry if the
action still makes sense against the new snapshot.`
}
