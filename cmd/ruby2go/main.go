// Package main provides the entry point for the ruby2go CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruby2js/ruby2go/cmd/ruby2go/commands"
	"github.com/ruby2js/ruby2go/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "ruby2go",
		Short: "ruby2go - SRC to TGT source-to-source translator",
		Long: `ruby2go rewrites SRC source into TGT source via AST rewriting.

Commands:
  convert     Convert one or more SRC files to TGT
  report      Render a stored conversion run as a table or HTML chart
  serve-lsp   Run an editor-integration language server
  serve-mcp   Run an MCP server exposing convert to model-driven agents`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewServeLSPCommand())
	rootCmd.AddCommand(commands.NewServeMCPCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "ruby2go %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
