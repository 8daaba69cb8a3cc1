// Package fault defines the structured error taxonomy shared by every
// layer of the server.
//
// A Fault is the only error shape that crosses the orchestrator
// boundary toward the tool layer: either an operation succeeds with a
// payload, or it fails with a Fault carrying a stable code. Unexpected
// errors (provider transport failures, bugs) are wrapped into
// CodeAnalysisFailed or CodeInternal at the boundary; they are never
// allowed to escape untyped.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code identifies a failure class. Codes are part of the tool contract:
// clients branch on them, so they are stable strings, not iota ints.
type Code string

const (
	// Input validation: rejected before touching the session or lock.
	CodeInvalidInput   Code = "InvalidInput"
	CodeInvalidRequest Code = "InvalidRequest"

	// Session lifecycle.
	CodeSolutionNotSelected Code = "SolutionNotSelected"
	CodeSolutionNotFound    Code = "SolutionNotFound"
	CodeInvalidPath         Code = "InvalidPath"
	CodePathOutOfScope      Code = "PathOutOfScope"

	// Registry lookup. UnknownActionId means the caller sent a token we
	// never issued; StaleWorkspaceSnapshot means the token was real but
	// the workspace moved on: a legitimate race, not a caller bug.
	CodeUnknownActionID        Code = "UnknownActionId"
	CodeStaleWorkspaceSnapshot Code = "StaleWorkspaceSnapshot"

	// Policy rejections.
	CodePolicyBlocked   Code = "PolicyBlocked"
	CodeFeatureDisabled Code = "FeatureDisabled"

	// Commit-time incompatibility with the live documents.
	CodeFixConflict    Code = "FixConflict"
	CodeRenameConflict Code = "RenameConflict"

	// Optimistic-concurrency mismatch in cleanup.
	CodeWorkspaceChanged Code = "WorkspaceChanged"

	// Rename argument validation.
	CodeInvalidNewName Code = "InvalidNewName"

	// Provider-level and unexpected failures.
	CodeAnalysisFailed Code = "AnalysisFailed"
	CodeInternal       Code = "InternalError"
)

// Fault is a structured, code-tagged error.
type Fault struct {
	Code    Code
	Message string
	Details map[string]string
}

// New creates a Fault with a formatted message.
func New(code Code, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

// With returns a copy of the fault with one detail added. The receiver
// is not mutated, so package-level sentinel faults stay safe to share.
func (f *Fault) With(key, value string) *Fault {
	details := make(map[string]string, len(f.Details)+1)
	for k, v := range f.Details {
		details[k] = v
	}
	details[key] = value
	return &Fault{Code: f.Code, Message: f.Message, Details: details}
}

// Error implements the error interface. Details are rendered sorted so
// the output is stable for logs and tests.
func (f *Fault) Error() string {
	if len(f.Details) == 0 {
		return fmt.Sprintf("%s: %s", f.Code, f.Message)
	}
	keys := make([]string, 0, len(f.Details))
	for k := range f.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (", f.Code, f.Message)
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", k, f.Details[k])
	}
	b.WriteString(")")
	return b.String()
}

// As extracts a *Fault from an error chain, or nil.
func As(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	f := As(err)
	return f != nil && f.Code == code
}

// Internalize converts an arbitrary error into a Fault. Existing faults
// pass through unchanged; anything else becomes the fallback code with
// the original message preserved in the "cause" detail.
func Internalize(err error, fallback Code) *Fault {
	if err == nil {
		return nil
	}
	if f := As(err); f != nil {
		return f
	}
	return New(fallback, "unexpected failure").With("cause", err.Error())
}
