package reactive

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Task is one progressive-indexing unit. Lower priority numbers index
// first (open documents before workspace sweep).
type Task struct {
	URI      string
	Priority int
}

// ProcessFunc indexes one task; LinkFunc runs once per batch after every
// task in it, so cross-file references never observe a half-linked state.
type (
	ProcessFunc func(ctx context.Context, task Task) error
	LinkFunc    func(ctx context.Context) error
)

// Indexer batches indexing tasks, sorts each batch by priority, processes
// sequentially, and links cross-file references at the batch boundary.
// Only shutdown cancels it.
type Indexer struct {
	cfg     Config
	process ProcessFunc
	link    LinkFunc
	logger  *slog.Logger
	tasks   chan Task
}

// NewIndexer creates an indexer; Submit queues work, Run drains it.
func NewIndexer(cfg Config, process ProcessFunc, link LinkFunc, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		cfg:     cfg.Normalize(),
		process: process,
		link:    link,
		logger:  logger,
		tasks:   make(chan Task, 1024),
	}
}

// Submit queues a task. It drops the task with a log line when the queue
// is saturated rather than blocking a caller.
func (ix *Indexer) Submit(task Task) {
	select {
	case ix.tasks <- task:
	default:
		ix.logger.Warn("indexing queue full; dropping task", "uri", task.URI)
	}
}

// Run drains tasks until ctx is done, batching by size or window.
func (ix *Indexer) Run(ctx context.Context) {
	for {
		batch, ok := ix.collect(ctx)
		if len(batch) > 0 {
			ix.runBatch(ctx, batch)
		}
		if !ok {
			return
		}
	}
}

// collect gathers one batch: it blocks for the first task, then fills up
// to the batch size or window. The second result is false on shutdown.
func (ix *Indexer) collect(ctx context.Context) ([]Task, bool) {
	var batch []Task

	select {
	case <-ctx.Done():
		return nil, false
	case t := <-ix.tasks:
		batch = append(batch, t)
	}

	window := time.NewTimer(ix.cfg.IndexBatchWindow)
	defer window.Stop()
	for len(batch) < ix.cfg.IndexBatchSize {
		select {
		case <-ctx.Done():
			return batch, false
		case t := <-ix.tasks:
			batch = append(batch, t)
		case <-window.C:
			return batch, true
		}
	}
	return batch, true
}

func (ix *Indexer) runBatch(ctx context.Context, batch []Task) {
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Priority < batch[j].Priority
	})

	for _, task := range batch {
		if ctx.Err() != nil {
			return
		}
		if err := ix.process(ctx, task); err != nil {
			ix.logger.Warn("indexing task failed", "uri", task.URI, "error", err)
		}
	}

	if ix.link != nil {
		if err := ix.link(ctx); err != nil {
			ix.logger.Warn("cross-file linking failed", "error", err)
		}
	}
}
