package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/f1r3fly-io/rholang-analyzer/db"
	"github.com/f1r3fly-io/rholang-analyzer/internal/feature"
	"github.com/f1r3fly-io/rholang-analyzer/internal/position"
	"github.com/f1r3fly-io/rholang-analyzer/internal/reactive"
	"github.com/f1r3fly-io/rholang-analyzer/internal/workspace"
)

func newParseCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse one file and report its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWorkspace(flags)
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			uri := workspace.FileURI(args[0])
			w.Update(uri, source)

			diags := w.Diags.For(uri)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(diags)
			}
			if len(diags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
				return nil
			}
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d %s %s\n",
					args[0], d.Range.Start.Row+1, d.Range.Start.Column+1, d.Code, d.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit diagnostics as JSON")
	return cmd
}

func newSymbolsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols <file>",
		Short: "Print a file's document symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWorkspace(flags)
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			uri := workspace.FileURI(args[0])
			w.Update(uri, source)

			return json.NewEncoder(cmd.OutOrStdout()).Encode(w.Features.DocumentSymbols(uri))
		},
	}
	return cmd
}

func newIndexCmd(flags *rootFlags) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "index <root>",
		Short: "Index a workspace; optionally export a snapshot database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWorkspace(flags)
			if err != nil {
				return err
			}
			n, err := w.IndexRoot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files, %d symbols\n", n, w.SymbolCount())

			if dsn != "" {
				conn, err := db.Connect(dsn, flags.verbose)
				if err != nil {
					return err
				}
				id, err := db.Export(conn, w, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s written to %s\n", id, dsn)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "Snapshot DSN (file path or libsql:// URL)")
	return cmd
}

func newRenameCmd(flags *rootFlags) *cobra.Command {
	var line, column int
	var apply bool
	cmd := &cobra.Command{
		Use:   "rename <root> <file> <new-name>",
		Short: "Preview (or apply) a workspace-wide rename",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWorkspace(flags)
			if err != nil {
				return err
			}
			if _, err := w.IndexRoot(cmd.Context(), args[0]); err != nil {
				return err
			}

			uri := workspace.FileURI(args[1])
			entry, ok := w.Docs.Get(uri)
			if !ok {
				return fmt.Errorf("file %s is not part of the workspace", args[1])
			}
			pos := position.Position{
				Row:    uint32(line - 1),
				Column: uint32(column - 1),
				Byte:   entry.Lines.ByteFor(uint32(line-1), uint32(column-1)),
			}

			preview, ok := w.Features.RenamePreview(uri, pos, args[2])
			if !ok {
				return fmt.Errorf("nothing to rename at %d:%d", line, column)
			}
			fmt.Fprint(cmd.OutOrStdout(), preview)

			if apply {
				return applyRename(w, uri, pos, args[2])
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&line, "line", "l", 1, "One-based line of the symbol")
	cmd.Flags().IntVar(&column, "column", 1, "One-based column of the symbol")
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the edits to disk")
	cmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ToLower(name))
	})
	return cmd
}

func applyRename(w *workspace.Workspace, uri string, pos position.Position, newName string) error {
	edit, ok := w.Features.Rename(uri, pos, newName)
	if !ok {
		return fmt.Errorf("rename resolution failed")
	}
	for target, edits := range edit.Changes {
		entry, found := w.Docs.Get(target)
		if !found {
			continue
		}
		path := strings.TrimPrefix(target, "file://")
		if err := os.WriteFile(path, []byte(feature.ApplyEdits(entry.Source, edits)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <root>",
		Short: "Index a workspace and revalidate files as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWorkspace(flags)
			if err != nil {
				return err
			}
			if _, err := w.IndexRoot(cmd.Context(), args[0]); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, w, args[0])
		},
	}
	return cmd
}

// runWatch wires the reactive pipeline: watcher events debounce into
// revalidation, and workspace events stream to stdout.
func runWatch(ctx context.Context, w *workspace.Workspace, root string) error {
	cfg := reactive.DefaultConfig()

	debouncer := reactive.NewDebouncer(cfg, func(vctx context.Context, uri string) error {
		path := strings.TrimPrefix(uri, "file://")
		source, err := os.ReadFile(path)
		if err != nil {
			w.Remove(uri)
			return nil
		}
		if vctx.Err() != nil {
			return vctx.Err()
		}
		w.Update(uri, source)
		for _, d := range w.Diags.For(uri) {
			fmt.Printf("%s:%d:%d %s %s\n", path, d.Range.Start.Row+1, d.Range.Start.Column+1, d.Code, d.Message)
		}
		return nil
	}, nil)
	defer debouncer.Shutdown()

	watcher, err := reactive.NewWatcher(cfg, func(fctx context.Context, path string) error {
		if strings.HasSuffix(path, ".rho") {
			debouncer.Change(workspace.FileURI(path))
		}
		return nil
	}, nil)
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(root); err != nil {
		return err
	}

	events, cancel := w.Events.Subscribe()
	defer cancel()
	go func() {
		for ev := range events {
			fmt.Printf("workspace: %s files=%d symbols=%d\n", ev.ChangeType, ev.FileCount, ev.SymbolCount)
		}
	}()

	watcher.Run(ctx)
	return nil
}
