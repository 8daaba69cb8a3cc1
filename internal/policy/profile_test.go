package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcastillo/roslyn-mcp/internal/provider"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullProfile(t *testing.T) {
	path := writeProfile(t, `
name: ci
disabled_categories:
  - refactoring
denylist:
  - diagnostic_id: CS8019
allowlist:
  - fix_id: fix.remove-unused
max_risk: safe
cleanup_rule_risk:
  remove_unnecessary_imports: moderate
`)

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ci", p.Name)
	assert.Equal(t, []string{"refactoring"}, p.DisabledCategories)
	assert.Equal(t, provider.RiskSafe, p.MaxRisk)
	assert.Equal(t, provider.RiskModerate, p.CleanupRuleRisk["remove_unnecessary_imports"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidRisk(t *testing.T) {
	path := writeProfile(t, "name: bad\nmax_risk: reckless\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reckless")
}

func TestValidate_RequiresName(t *testing.T) {
	p := Profile{MaxRisk: provider.RiskSafe}
	assert.Error(t, p.Validate())
}

func TestValidate_RejectsEmptyListEntries(t *testing.T) {
	p := Profile{
		Name:     "p",
		MaxRisk:  provider.RiskSafe,
		Denylist: []Match{{}},
	}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denylist entry 0")
}

func TestCleanupDescriptor_DefaultsToSafe(t *testing.T) {
	d := Default().CleanupDescriptor("remove_unnecessary_imports")
	assert.Equal(t, provider.RiskSafe, d.Risk)
	assert.Equal(t, "cleanup", d.Category)
	assert.Equal(t, "remove_unnecessary_imports", d.Ref)
}

func TestCleanupDescriptor_RiskOverride(t *testing.T) {
	p := Default()
	p.CleanupRuleRisk = map[string]provider.Risk{"format_document": provider.RiskModerate}

	d := p.CleanupDescriptor("format_document")
	assert.Equal(t, provider.RiskModerate, d.Risk)
}
