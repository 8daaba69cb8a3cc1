// Package config loads server configuration from an optional YAML file
// with environment-variable overrides, and implements the solution
// path validation the session store delegates to.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
)

// Environment overrides. Each one, when set, wins over the file value.
const (
	EnvSidecarURL   = "ROSLYN_MCP_SIDECAR_URL"
	EnvProfilePath  = "ROSLYN_MCP_PROFILE"
	EnvDataDir      = "ROSLYN_MCP_DATA_DIR"
	EnvAllowedRoots = "ROSLYN_MCP_ALLOWED_ROOTS" // separated by os.PathListSeparator
)

// solutionExtensions are the artifact types Select accepts.
var solutionExtensions = map[string]bool{
	".sln":    true,
	".slnx":   true,
	".csproj": true,
}

// Config is the process configuration.
type Config struct {
	// SidecarURL is the base URL of the Roslyn sidecar.
	SidecarURL string `yaml:"sidecar_url"`

	// ProfilePath points at the policy profile YAML. Empty means the
	// built-in default profile.
	ProfilePath string `yaml:"profile,omitempty"`

	// DataDir holds the history database. Defaults to ~/.roslyn-mcp.
	DataDir string `yaml:"data_dir,omitempty"`

	// AllowedRoots restricts which directories solutions may be
	// selected from. Empty means no restriction.
	AllowedRoots []string `yaml:"allowed_roots,omitempty"`

	// DisableHistory turns the mutation journal off.
	DisableHistory bool `yaml:"disable_history,omitempty"`
}

// Load reads configuration from path (optional; empty path loads
// defaults) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		SidecarURL: "http://127.0.0.1:5120",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvSidecarURL); v != "" {
		cfg.SidecarURL = v
	}
	if v := os.Getenv(EnvProfilePath); v != "" {
		cfg.ProfilePath = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvAllowedRoots); v != "" {
		cfg.AllowedRoots = filepath.SplitList(v)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".roslyn-mcp")
	}

	if cfg.SidecarURL == "" {
		return Config{}, fmt.Errorf("sidecar_url is required")
	}
	return cfg, nil
}

// ResolveSolution validates and canonicalizes a solution path. It
// implements workspace.PathResolver: the path must exist, carry a
// recognized solution extension, and (when AllowedRoots is set) live
// under one of the allowed roots after symlink resolution.
func (c Config) ResolveSolution(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fault.New(fault.CodeInvalidPath, "solution path is empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fault.New(fault.CodeInvalidPath, "cannot resolve path %q: %v", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fault.New(fault.CodeInvalidPath, "solution does not exist: %s", abs)
		}
		return "", fault.New(fault.CodeInvalidPath, "cannot resolve path %q: %v", path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fault.New(fault.CodeInvalidPath, "solution does not exist: %s", resolved)
	}
	if info.IsDir() {
		return "", fault.New(fault.CodeInvalidPath, "%s is a directory, not a solution file", resolved)
	}
	if !solutionExtensions[strings.ToLower(filepath.Ext(resolved))] {
		return "", fault.New(fault.CodeInvalidPath,
			"%s is not a solution artifact (.sln, .slnx, or .csproj)", resolved)
	}

	if len(c.AllowedRoots) > 0 && !underAnyRoot(resolved, c.AllowedRoots) {
		return "", fault.New(fault.CodePathOutOfScope,
			"solution %s is outside the allowed roots", resolved).
			With("allowedRoots", strings.Join(c.AllowedRoots, string(os.PathListSeparator)))
	}
	return resolved, nil
}

// underAnyRoot reports whether path is inside one of roots.
func underAnyRoot(path string, roots []string) bool {
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
