// Command rholang-analyzer drives the semantic core from the terminal:
// parse a file, list symbols, index a workspace (optionally exporting a
// snapshot), preview a rename, or watch a directory live.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/f1r3fly-io/rholang-analyzer/internal/config"
	"github.com/f1r3fly-io/rholang-analyzer/internal/workspace"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "rholang-analyzer",
		Short:         "Semantic analysis engine for Rholang workspaces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML settings file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newParseCmd(flags),
		newSymbolsCmd(flags),
		newIndexCmd(flags),
		newRenameCmd(flags),
		newWatchCmd(flags),
	)
	return root
}

// newWorkspace builds a workspace from the effective configuration.
func newWorkspace(flags *rootFlags) (*workspace.Workspace, error) {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return workspace.New(cfg, workspace.WithLogger(logger)), nil
}
