package policy

import (
	"fmt"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
)

// Verdict is the binary outcome of an evaluation.
type Verdict string

const (
	Allow Verdict = "allow"
	Block Verdict = "block"
)

// ReasonCode names which rule produced a decision.
type ReasonCode string

const (
	ReasonFeatureDisabled ReasonCode = "feature_disabled"
	ReasonDenylisted      ReasonCode = "denylisted"
	ReasonAllowlisted     ReasonCode = "allowlisted"
	ReasonRiskExceeded    ReasonCode = "risk_exceeded"
	ReasonRiskWithinLimit ReasonCode = "risk_within_limit"
)

// Decision is the cached outcome of evaluating one descriptor against
// one profile.
type Decision struct {
	Verdict Verdict    `json:"verdict"`
	Reason  ReasonCode `json:"reason"`
	Message string     `json:"message"`
}

// Allowed reports whether the decision permits preview and apply.
func (d Decision) Allowed() bool {
	return d.Verdict == Allow
}

// Fault converts a blocking decision into the matching fault. Returns
// nil for allowing decisions.
func (d Decision) Fault() error {
	if d.Allowed() {
		return nil
	}
	code := fault.CodePolicyBlocked
	if d.Reason == ReasonFeatureDisabled {
		code = fault.CodeFeatureDisabled
	}
	return fault.New(code, "%s", d.Message).With("reason", string(d.Reason))
}

// Evaluate maps a descriptor and a profile to a decision. Rule order
// is fixed and first match wins:
//
//  1. disabled category  -> Block (feature_disabled)
//  2. denylist match     -> Block (denylisted)
//  3. allowlist match    -> Allow (allowlisted)
//  4. risk vs MaxRisk    -> Allow at or below the ceiling, else Block
func Evaluate(d provider.Descriptor, p Profile) Decision {
	for _, cat := range p.DisabledCategories {
		if cat == d.Category {
			return Decision{
				Verdict: Block,
				Reason:  ReasonFeatureDisabled,
				Message: fmt.Sprintf("category %q is disabled by profile %q", d.Category, p.Name),
			}
		}
	}

	for _, m := range p.Denylist {
		if m.matches(d) {
			return Decision{
				Verdict: Block,
				Reason:  ReasonDenylisted,
				Message: fmt.Sprintf("denylisted by profile %q (%s)", p.Name, m.describe()),
			}
		}
	}

	for _, m := range p.Allowlist {
		if m.matches(d) {
			return Decision{
				Verdict: Allow,
				Reason:  ReasonAllowlisted,
				Message: fmt.Sprintf("allowlisted by profile %q (%s)", p.Name, m.describe()),
			}
		}
	}

	if d.Risk.Ordinal() < 0 || d.Risk.Ordinal() > p.MaxRisk.Ordinal() {
		return Decision{
			Verdict: Block,
			Reason:  ReasonRiskExceeded,
			Message: fmt.Sprintf("risk level %q exceeds profile %q ceiling %q", d.Risk, p.Name, p.MaxRisk),
		}
	}

	return Decision{
		Verdict: Allow,
		Reason:  ReasonRiskWithinLimit,
		Message: fmt.Sprintf("risk level %q is within profile %q ceiling %q", d.Risk, p.Name, p.MaxRisk),
	}
}
