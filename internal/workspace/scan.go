package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/f1r3fly-io/rholang-analyzer/internal/reactive"
)

// DefaultPattern matches the workspace's Rholang sources.
const DefaultPattern = "**/*.rho"

// Scan finds source files under root matching pattern, skipping hidden
// directories. Results are sorted for deterministic indexing order.
func Scan(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, m := range matches {
		if hiddenPath(m) {
			continue
		}
		out = append(out, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

func hiddenPath(rel string) bool {
	dir := rel
	for dir != "." && dir != "" {
		base := filepath.Base(dir)
		if len(base) > 1 && base[0] == '.' {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return false
}

// IndexRoot scans root, indexes every file, links the batch, and
// broadcasts completion. Indexing respects ctx cancellation between
// files.
func (w *Workspace) IndexRoot(ctx context.Context, root string) (int, error) {
	files, err := Scan(root, DefaultPattern)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			return indexed, ctx.Err()
		}
		source, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		w.ParseAndIndex(FileURI(path), source)
		indexed++
	}

	// Cross-file references link once per batch, never mid-sweep.
	w.Link()
	w.Events.Publish(reactive.Event{
		FileCount:   w.Docs.Len(),
		SymbolCount: w.SymbolCount(),
		ChangeType:  reactive.ChangeIndexingComplete,
	})
	return indexed, nil
}

// FileURI renders a filesystem path as a file:// URI.
func FileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}
