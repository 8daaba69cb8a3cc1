package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/history"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/dcastillo/roslyn-mcp/internal/workspace"
)

// RenameResult reports a committed symbol rename.
type RenameResult struct {
	SymbolID     string              `json:"symbolId"`
	NewName      string              `json:"newName"`
	Version      uint64              `json:"version"`
	ChangedFiles []string            `json:"changedFiles"`
	Locations    []provider.Location `json:"locations,omitempty"`
}

// csharpKeywords are reserved words that cannot be used as a bare
// identifier; prefixing with @ makes them legal (verbatim identifier).
var csharpKeywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true,
	"default": true, "delegate": true, "do": true, "double": true,
	"else": true, "enum": true, "event": true, "explicit": true,
	"extern": true, "false": true, "finally": true, "fixed": true,
	"float": true, "for": true, "foreach": true, "goto": true, "if": true,
	"implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true,
	"namespace": true, "new": true, "null": true, "object": true,
	"operator": true, "out": true, "override": true, "params": true,
	"private": true, "protected": true, "public": true, "readonly": true,
	"ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true,
	"string": true, "struct": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "typeof": true, "uint": true,
	"ulong": true, "unchecked": true, "unsafe": true, "ushort": true,
	"using": true, "virtual": true, "void": true, "volatile": true,
	"while": true,
}

// ValidateIdentifier checks newName against C# identifier syntax:
// an optional @ prefix, a letter or underscore, then letters, digits,
// or underscores. Bare keywords are rejected; @-prefixed ones are not.
func ValidateIdentifier(name string) error {
	bare := strings.TrimPrefix(name, "@")
	if bare == "" {
		return fault.New(fault.CodeInvalidNewName, "new name is empty")
	}
	if !strings.HasPrefix(name, "@") && csharpKeywords[bare] {
		return fault.New(fault.CodeInvalidNewName,
			"%q is a reserved keyword: prefix with @ to use it as an identifier", name)
	}
	for i, r := range bare {
		if i == 0 {
			if r != '_' && !unicode.IsLetter(r) {
				return fault.New(fault.CodeInvalidNewName,
					"%q is not a valid identifier: must start with a letter or underscore", name)
			}
			continue
		}
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fault.New(fault.CodeInvalidNewName,
				"%q is not a valid identifier: invalid character %q", name, r)
		}
	}
	return nil
}

// RenameSymbol computes and commits a rename edit set under the
// exclusive lock. The new name is validated before any provider call;
// a provider-reported collision fails RenameConflict with nothing
// committed.
func (o *Orchestrator) RenameSymbol(ctx context.Context, symbolID, newName string) (*RenameResult, error) {
	if strings.TrimSpace(symbolID) == "" {
		return nil, fault.New(fault.CodeInvalidInput, "'symbol_id' is required")
	}
	if err := ValidateIdentifier(newName); err != nil {
		return nil, err
	}

	var cs *provider.ChangeSet
	sess, err := o.store.Mutate(func(cur workspace.Session) (string, bool, error) {
		var err error
		cs, err = o.cip.ComputeRename(ctx, cur.Handle, symbolID, newName)
		if err != nil {
			return "", false, renameFault(err)
		}
		if cs.Empty() {
			return "", false, fault.New(fault.CodeAnalysisFailed,
				"rename produced no edits for symbol %q", symbolID)
		}
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		newHandle, err := o.cip.CommitEdit(ctx, cur.Handle, cs.Ref)
		if err != nil {
			return "", false, renameFault(err)
		}
		return newHandle, true, nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Info("symbol renamed",
		"symbolId", symbolID, "newName", newName,
		"version", sess.Version, "files", len(cs.ChangedFiles))
	o.record(ctx, history.Entry{
		Operation:    "rename",
		Subject:      newName,
		SolutionPath: sess.Path,
		Version:      sess.Version,
		ChangedFiles: len(cs.ChangedFiles),
		AppliedAt:    time.Now().UTC(),
	})

	return &RenameResult{
		SymbolID:     symbolID,
		NewName:      newName,
		Version:      sess.Version,
		ChangedFiles: cs.ChangedFiles,
		Locations:    cs.Locations,
	}, nil
}

// renameFault maps rename-path provider errors: both a computed
// collision and a commit-time divergence surface as RenameConflict.
func renameFault(err error) error {
	if errors.Is(err, provider.ErrNameCollision) || errors.Is(err, provider.ErrEditConflict) {
		return fault.New(fault.CodeRenameConflict,
			"rename conflicts with existing symbols or concurrent edits")
	}
	return cipFault(err)
}
