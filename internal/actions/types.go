// Package actions caches discovered action descriptors under opaque,
// unguessable tokens, each bound to the workspace snapshot version it
// was discovered against. Records never outlive their snapshot: the
// whole table is wiped on every version bump.
package actions

import (
	"fmt"

	"github.com/dcastillo/roslyn-mcp/internal/policy"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
)

// Kind categorizes what kind of mutation an action performs.
type Kind string

const (
	KindCodeFix     Kind = "code_fix"
	KindRefactoring Kind = "refactoring"
	KindCleanupRule Kind = "cleanup_rule"
)

// tokenPrefixes make action ids self-describing in logs and transcripts.
var tokenPrefixes = map[Kind]string{
	KindCodeFix:     "fix_",
	KindRefactoring: "ref_",
	KindCleanupRule: "cln_",
}

// ValidateKind returns an error if the kind is not recognized.
func ValidateKind(k Kind) error {
	if _, ok := tokenPrefixes[k]; !ok {
		return fmt.Errorf("invalid action kind %q: must be one of: code_fix, refactoring, cleanup_rule", k)
	}
	return nil
}

// Record is one cached action. It is reachable only while BoundVersion
// equals the live session version.
type Record struct {
	ID           string
	BoundVersion uint64
	Kind         Kind
	Descriptor   provider.Descriptor
	Decision     policy.Decision
}
