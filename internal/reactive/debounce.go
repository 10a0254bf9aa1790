package reactive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ValidateFunc runs one document validation. The context carries the
// validation timeout and is cancelled when a newer change supersedes the
// run.
type ValidateFunc func(ctx context.Context, uri string) error

// Debouncer coalesces document changes per URI: a validation fires only
// after the quiescent window, and a new change for the same URI cancels
// both the pending timer and any in-flight validation. Per URI the last
// write wins.
type Debouncer struct {
	cfg      Config
	validate ValidateFunc
	logger   *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	cancels map[string]*inflight
	closed  bool

	wg sync.WaitGroup
}

// inflight identifies one running validation so a finished run only
// clears its own token, never a successor's.
type inflight struct {
	cancel context.CancelFunc
}

// NewDebouncer creates a debouncer that invokes validate after each URI's
// quiescent window.
func NewDebouncer(cfg Config, validate ValidateFunc, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{
		cfg:      cfg.Normalize(),
		validate: validate,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		cancels:  make(map[string]*inflight),
	}
}

// Change records a document change. The pending validation for the URI,
// scheduled or already running, is superseded.
func (d *Debouncer) Change(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if t, ok := d.timers[uri]; ok {
		t.Stop()
	}
	// Supersede an in-flight validation immediately: its result would
	// describe a stale document.
	if run, ok := d.cancels[uri]; ok {
		run.cancel()
		delete(d.cancels, uri)
	}

	d.timers[uri] = time.AfterFunc(d.cfg.DebounceWindow, func() {
		d.fire(uri)
	})
}

func (d *Debouncer) fire(uri string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	delete(d.timers, uri)

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.ValidateTimeout)
	run := &inflight{cancel: cancel}
	d.cancels[uri] = run
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			// Only clear our own token; a newer change may have
			// installed its own already.
			if d.cancels[uri] == run {
				delete(d.cancels, uri)
			}
			d.mu.Unlock()
			cancel()
		}()

		err := d.validate(ctx, uri)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			// Superseded by a newer edit; silently discarded.
		case errors.Is(err, context.DeadlineExceeded):
			d.logger.Warn("validation timed out", "uri", uri, "timeout", d.cfg.ValidateTimeout)
		default:
			d.logger.Error("validation failed", "uri", uri, "error", err)
		}
	}()
}

// Pending reports whether a validation is scheduled or running for uri.
func (d *Debouncer) Pending(uri string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, scheduled := d.timers[uri]
	_, running := d.cancels[uri]
	return scheduled || running
}

// Shutdown stops every timer, cancels in-flight validations, and waits
// for them to drain.
func (d *Debouncer) Shutdown() {
	d.mu.Lock()
	d.closed = true
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = map[string]*time.Timer{}
	for _, run := range d.cancels {
		run.cancel()
	}
	d.mu.Unlock()
	d.wg.Wait()
}
