// Package reactive drives the analyzer's event streams: file-system
// watching, per-document debounced validation, progressive workspace
// indexing, and the workspace change broadcast. Every long-running
// operation runs under a timeout and a cancellation token; a single
// context cancellation shuts every stream down.
package reactive

import "time"

// Config carries the stream constants. Zero values fall back to the
// defaults below via Normalize.
type Config struct {
	WatcherBatchSize   int           `yaml:"watcher_batch_size"`
	WatcherBatchWindow time.Duration `yaml:"watcher_batch_window"`
	FileTimeout        time.Duration `yaml:"file_timeout"`
	DebounceWindow     time.Duration `yaml:"debounce_window"`
	ValidateTimeout    time.Duration `yaml:"validate_timeout"`
	IndexBatchSize     int           `yaml:"index_batch_size"`
	IndexBatchWindow   time.Duration `yaml:"index_batch_window"`
}

// DefaultConfig returns the stream constants the spec fixes: 10-event or
// 100 ms watcher batches with 5 s per-file timeouts, a 100 ms debounce
// with 10 s validation timeouts, and 10-task or 200 ms indexing batches.
func DefaultConfig() Config {
	return Config{
		WatcherBatchSize:   10,
		WatcherBatchWindow: 100 * time.Millisecond,
		FileTimeout:        5 * time.Second,
		DebounceWindow:     100 * time.Millisecond,
		ValidateTimeout:    10 * time.Second,
		IndexBatchSize:     10,
		IndexBatchWindow:   200 * time.Millisecond,
	}
}

// Normalize fills unset fields from the defaults.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.WatcherBatchSize <= 0 {
		c.WatcherBatchSize = d.WatcherBatchSize
	}
	if c.WatcherBatchWindow <= 0 {
		c.WatcherBatchWindow = d.WatcherBatchWindow
	}
	if c.FileTimeout <= 0 {
		c.FileTimeout = d.FileTimeout
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = d.DebounceWindow
	}
	if c.ValidateTimeout <= 0 {
		c.ValidateTimeout = d.ValidateTimeout
	}
	if c.IndexBatchSize <= 0 {
		c.IndexBatchSize = d.IndexBatchSize
	}
	if c.IndexBatchWindow <= 0 {
		c.IndexBatchWindow = d.IndexBatchWindow
	}
	return c
}
