// roslyn-mcp: C# code intelligence MCP server.
//
// Exposes navigation, code-fix, refactoring, cleanup, and rename
// operations over a loaded solution to MCP clients, delegating the
// semantic analysis to an external Roslyn sidecar.
//
// Usage:
//
//	roslyn-mcp serve                      # Start MCP server (stdio transport)
//	roslyn-mcp profiles validate <file>   # Check a policy profile YAML
//	roslyn-mcp version                    # Print the version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcastillo/roslyn-mcp/internal/config"
	"github.com/dcastillo/roslyn-mcp/internal/policy"
	mcpserver "github.com/dcastillo/roslyn-mcp/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand creates the root command with all subcommands.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "roslyn-mcp",
		Short:         "C# code intelligence MCP server",
		Long:          "An MCP server exposing Roslyn-backed code fixes, refactorings, cleanup, and rename over a loaded solution.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newProfilesCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// newServeCommand creates the serve subcommand.
func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			s, cleanup, err := mcpserver.New(cfg)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// stdio server manages its own lifecycle; it returns when
			// the client closes the transport.
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config YAML (optional)")
	return cmd
}

// newProfilesCommand creates the profiles subcommand group.
func newProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Work with policy profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and semantically check a policy profile YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := policy.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"profile %q is valid: max risk %s, %d denylist, %d allowlist, %d disabled categories\n",
				p.Name, p.MaxRisk, len(p.Denylist), len(p.Allowlist), len(p.DisabledCategories))
			return nil
		},
	})
	return cmd
}

// newVersionCommand creates the version subcommand.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "roslyn-mcp v%s\n", mcpserver.Version)
		},
	}
}
