package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/dcastillo/roslyn-mcp/internal/actions"
	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/history"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/dcastillo/roslyn-mcp/internal/workspace"
)

// PreviewResult reports what an action would change, without
// committing anything.
type PreviewResult struct {
	ActionID     string         `json:"actionId"`
	Title        string         `json:"title"`
	PerFile      map[string]int `json:"perFile"`
	ChangedFiles []string       `json:"changedFiles"`
}

// ApplyResult reports a committed action: the new snapshot version and
// the files it touched.
type ApplyResult struct {
	ActionID     string         `json:"actionId"`
	Title        string         `json:"title"`
	Version      uint64         `json:"version"`
	PerFile      map[string]int `json:"perFile"`
	ChangedFiles []string       `json:"changedFiles"`
}

// Preview materializes an action's edit without committing it. Never
// touches the workspace version; the record stays valid afterwards.
func (o *Orchestrator) Preview(ctx context.Context, actionID string) (*PreviewResult, error) {
	var out *PreviewResult
	err := o.store.View(func(sess workspace.Session) error {
		rec, err := o.registry.Get(actionID, sess.Version)
		if err != nil {
			return err
		}
		if err := rec.Decision.Fault(); err != nil {
			return err
		}

		cs, err := o.cip.MaterializeEdit(ctx, sess.Handle, rec.Descriptor.Ref)
		if err != nil {
			return cipFault(err)
		}
		out = &PreviewResult{
			ActionID:     rec.ID,
			Title:        rec.Descriptor.Title,
			PerFile:      cs.PerFile,
			ChangedFiles: cs.ChangedFiles,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Apply materializes and commits an action under the exclusive lock.
// On success the version advances by exactly one and the registry is
// wiped; on any failure nothing persists and the version is unchanged.
func (o *Orchestrator) Apply(ctx context.Context, actionID string) (*ApplyResult, error) {
	var (
		rec *actions.Record
		cs  *provider.ChangeSet
	)
	sess, err := o.store.Mutate(func(cur workspace.Session) (string, bool, error) {
		var err error
		rec, err = o.registry.Get(actionID, cur.Version)
		if err != nil {
			return "", false, err
		}
		// Decision was computed at discovery time against the same
		// profile; a block cached then still blocks now.
		if err := rec.Decision.Fault(); err != nil {
			return "", false, err
		}

		cs, err = o.cip.MaterializeEdit(ctx, cur.Handle, rec.Descriptor.Ref)
		if err != nil {
			return "", false, applyFault(err)
		}
		if err := ctx.Err(); err != nil {
			// Cancelled between materialize and commit: nothing has
			// been applied yet, so abort with no state change.
			return "", false, err
		}

		newHandle, err := o.cip.CommitEdit(ctx, cur.Handle, cs.Ref)
		if err != nil {
			return "", false, applyFault(err)
		}
		return newHandle, true, nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Info("action applied",
		"actionId", actionID, "title", rec.Descriptor.Title,
		"version", sess.Version, "files", len(cs.ChangedFiles))
	o.record(ctx, history.Entry{
		Operation:    string(rec.Kind),
		Subject:      rec.Descriptor.Title,
		SolutionPath: sess.Path,
		Version:      sess.Version,
		ChangedFiles: len(cs.ChangedFiles),
		AppliedAt:    time.Now().UTC(),
	})

	return &ApplyResult{
		ActionID:     rec.ID,
		Title:        rec.Descriptor.Title,
		Version:      sess.Version,
		PerFile:      cs.PerFile,
		ChangedFiles: cs.ChangedFiles,
	}, nil
}

// applyFault maps commit-path provider errors: a conflict with the
// live documents is a FixConflict, anything else unexpected is an
// AnalysisFailed.
func applyFault(err error) error {
	if errors.Is(err, provider.ErrEditConflict) {
		return fault.New(fault.CodeFixConflict,
			"the document changed since this action was computed: re-run discovery")
	}
	return cipFault(err)
}
