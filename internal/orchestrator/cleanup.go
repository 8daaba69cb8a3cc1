package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/history"
	"github.com/dcastillo/roslyn-mcp/internal/policy"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/dcastillo/roslyn-mcp/internal/workspace"
)

// CleanupResult reports a cleanup batch: which rules ran, which were
// skipped or blocked, and whether the workspace changed at all.
type CleanupResult struct {
	Applied      []string `json:"applied"`
	Warnings     []string `json:"warnings,omitempty"`
	Changed      bool     `json:"changed"`
	Version      uint64   `json:"version"`
	ChangedFiles []string `json:"changedFiles,omitempty"`
}

// ExecuteCleanup runs the profile's ordered cleanup rules sequentially
// under the exclusive lock. Rules blocked by policy are skipped and
// reported as warnings, never errors. The version advances once for
// the whole batch, and only if at least one rule changed a file.
//
// expectedVersion, when non-nil, is an optimistic-concurrency guard:
// a mismatch fails WorkspaceChanged before any rule runs.
//
// Cancellation mid-batch is the one sanctioned partial outcome:
// completed rules stay applied, the remainder is not attempted, and
// the result reports both.
func (o *Orchestrator) ExecuteCleanup(ctx context.Context, scope provider.Scope, expectedVersion *uint64) (*CleanupResult, error) {
	result := &CleanupResult{}
	changedFiles := make(map[string]bool)

	sess, err := o.store.Mutate(func(cur workspace.Session) (string, bool, error) {
		if expectedVersion != nil && *expectedVersion != cur.Version {
			return "", false, fault.New(fault.CodeWorkspaceChanged,
				"workspace is at version %d, expected %d: re-inspect before cleanup", cur.Version, *expectedVersion).
				With("expectedVersion", fmt.Sprint(*expectedVersion)).
				With("actualVersion", fmt.Sprint(cur.Version))
		}

		rules, err := o.cip.FindCleanupRules(ctx, o.profile.Name)
		if err != nil {
			return "", false, cipFault(err)
		}

		handle := cur.Handle
		changed := false
		for _, rule := range rules {
			if err := ctx.Err(); err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("batch cancelled before rule %q; later rules not attempted", rule))
				break
			}

			decision := policy.Evaluate(o.profile.CleanupDescriptor(rule), o.profile)
			if !decision.Allowed() {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("rule %q skipped: %s", rule, decision.Message))
				continue
			}

			newHandle, cs, err := o.cip.ApplyCleanupRule(ctx, handle, rule, scope)
			if errors.Is(err, provider.ErrRuleSkipped) {
				continue
			}
			if err != nil {
				// A failing rule ends the batch; rules already applied
				// stay applied, mirroring cancellation.
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("rule %q failed: %v; later rules not attempted", rule, err))
				break
			}

			handle = newHandle
			result.Applied = append(result.Applied, rule)
			if !cs.Empty() {
				changed = true
				for _, f := range cs.ChangedFiles {
					changedFiles[f] = true
				}
			}
		}

		result.Changed = changed
		return handle, changed, nil
	})
	if err != nil {
		return nil, err
	}

	result.Version = sess.Version
	for f := range changedFiles {
		result.ChangedFiles = append(result.ChangedFiles, f)
	}
	sort.Strings(result.ChangedFiles)

	if result.Changed {
		o.log.Info("cleanup applied",
			"rules", len(result.Applied), "files", len(result.ChangedFiles), "version", sess.Version)
		o.record(ctx, history.Entry{
			Operation:    "cleanup",
			Subject:      fmt.Sprintf("%d rules (%s scope)", len(result.Applied), scope),
			SolutionPath: sess.Path,
			Version:      sess.Version,
			ChangedFiles: len(result.ChangedFiles),
			AppliedAt:    time.Now().UTC(),
		})
	}
	return result, nil
}
