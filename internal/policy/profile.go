// Package policy decides which discovered actions may be surfaced and
// committed. Evaluation is a pure function of (descriptor, profile):
// no clock, no I/O, no ordering dependence: the same inputs always
// produce the same decision, and it is safe to call without any lock.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dcastillo/roslyn-mcp/internal/provider"
)

// Match selects actions by fix id, diagnostic id, or category. Empty
// fields are wildcards; at least one field must be set. When several
// fields are set, all of them must match.
type Match struct {
	FixID        string `yaml:"fix_id,omitempty"`
	DiagnosticID string `yaml:"diagnostic_id,omitempty"`
	Category     string `yaml:"category,omitempty"`
}

// empty reports whether no field is set.
func (m Match) empty() bool {
	return m.FixID == "" && m.DiagnosticID == "" && m.Category == ""
}

// matches reports whether the descriptor satisfies every set field.
func (m Match) matches(d provider.Descriptor) bool {
	if m.empty() {
		return false
	}
	if m.FixID != "" && m.FixID != d.Ref {
		return false
	}
	if m.DiagnosticID != "" && m.DiagnosticID != d.DiagnosticID {
		return false
	}
	if m.Category != "" && m.Category != d.Category {
		return false
	}
	return true
}

// describe names the first set field, for reason messages.
func (m Match) describe() string {
	switch {
	case m.FixID != "":
		return fmt.Sprintf("fix id %q", m.FixID)
	case m.DiagnosticID != "":
		return fmt.Sprintf("diagnostic %q", m.DiagnosticID)
	default:
		return fmt.Sprintf("category %q", m.Category)
	}
}

// Profile is a named configuration of allow/deny rules and a maximum
// acceptable risk level. Profiles are loaded once at startup (or
// swapped via the reload path) and treated as immutable afterwards.
type Profile struct {
	Name string `yaml:"name"`

	// DisabledCategories switches whole action categories off before
	// any list is consulted.
	DisabledCategories []string `yaml:"disabled_categories,omitempty"`

	Denylist  []Match `yaml:"denylist,omitempty"`
	Allowlist []Match `yaml:"allowlist,omitempty"`

	// MaxRisk is the highest risk level allowed for actions matched by
	// no explicit list entry.
	MaxRisk provider.Risk `yaml:"max_risk"`

	// CleanupRuleRisk overrides the synthesized risk level of
	// individual cleanup rules (default: safe).
	CleanupRuleRisk map[string]provider.Risk `yaml:"cleanup_rule_risk,omitempty"`
}

// Default returns the profile used when no profile file is configured:
// everything enabled, moderate risk ceiling.
func Default() Profile {
	return Profile{Name: "default", MaxRisk: provider.RiskModerate}
}

// Load reads and validates a profile from a YAML file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the profile for semantic errors.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if err := provider.ValidateRisk(p.MaxRisk); err != nil {
		return err
	}
	for i, m := range p.Denylist {
		if m.empty() {
			return fmt.Errorf("denylist entry %d is empty: set fix_id, diagnostic_id, or category", i)
		}
	}
	for i, m := range p.Allowlist {
		if m.empty() {
			return fmt.Errorf("allowlist entry %d is empty: set fix_id, diagnostic_id, or category", i)
		}
	}
	for rule, risk := range p.CleanupRuleRisk {
		if err := provider.ValidateRisk(risk); err != nil {
			return fmt.Errorf("cleanup rule %q: %w", rule, err)
		}
	}
	return nil
}

// CleanupDescriptor synthesizes the descriptor used to evaluate a
// cleanup rule against this profile.
func (p Profile) CleanupDescriptor(ruleID string) provider.Descriptor {
	risk := provider.RiskSafe
	if override, ok := p.CleanupRuleRisk[ruleID]; ok {
		risk = override
	}
	return provider.Descriptor{
		Ref:      ruleID,
		Title:    ruleID,
		Category: "cleanup",
		Origin:   "cleanup",
		Risk:     risk,
	}
}
