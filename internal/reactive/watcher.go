package reactive

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileHandler processes one changed file. The context carries the
// per-file timeout.
type FileHandler func(ctx context.Context, path string) error

// Watcher batches file-system events and hands each unique path to the
// handler under a timeout. Handler failures are logged and skipped; the
// stream keeps running until the context is cancelled.
type Watcher struct {
	cfg     Config
	handler FileHandler
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a watcher. Call Add for each root, then Run.
func NewWatcher(cfg Config, handler FileHandler, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg.Normalize(), handler: handler, logger: logger, fsw: fsw}, nil
}

// Add registers a directory or file with the underlying watcher.
func (w *Watcher) Add(path string) error { return w.fsw.Add(path) }

// Close releases the underlying watcher. Run returns shortly after.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run consumes events until ctx is done. Events batch up to the
// configured size or window, flatten to unique paths, and process
// sequentially.
func (w *Watcher) Run(ctx context.Context) {
	var batch []fsnotify.Event
	timer := time.NewTimer(w.cfg.WatcherBatchWindow)
	defer timer.Stop()
	timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.processBatch(ctx, batch)
		batch = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				flush()
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if len(batch) == 0 {
				timer.Reset(w.cfg.WatcherBatchWindow)
			}
			batch = append(batch, ev)
			if len(batch) >= w.cfg.WatcherBatchSize {
				timer.Stop()
				flush()
			}
		case <-timer.C:
			flush()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				flush()
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) processBatch(ctx context.Context, batch []fsnotify.Event) {
	for _, path := range uniquePaths(batch) {
		fileCtx, cancel := context.WithTimeout(ctx, w.cfg.FileTimeout)
		err := w.handler(fileCtx, path)
		cancel()
		if err != nil {
			w.logger.Warn("file event handler failed; skipping", "path", path, "error", err)
		}
	}
}

// uniquePaths flattens a batch to its distinct paths, first-seen order.
func uniquePaths(batch []fsnotify.Event) []string {
	seen := make(map[string]bool, len(batch))
	var out []string
	for _, ev := range batch {
		if !seen[ev.Name] {
			seen[ev.Name] = true
			out = append(out, ev.Name)
		}
	}
	return out
}
