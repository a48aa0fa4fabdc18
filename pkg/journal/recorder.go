package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/quill/pkg/quill"
)

// DefaultBatchSize is the number of entries handed to a sink at once.
const DefaultBatchSize = 64

// Sink stores batches of entries.
type Sink interface {
	Write(ctx context.Context, entries []Entry) error
	Close(ctx context.Context) error
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithBatchSize sets how many entries are buffered before a write.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithSkipEmpty drops ticks without edits or errors.
func WithSkipEmpty() Option {
	return func(r *Recorder) {
		r.skipEmpty = true
	}
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// Recorder is a quill.Hook that journals ticks.
type Recorder struct {
	sink      Sink
	batchSize int
	skipEmpty bool
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	buf     []Entry
	written int
	lastErr error
}

var _ quill.Hook = (*Recorder)(nil)

// NewRecorder creates a Recorder writing to sink.
func NewRecorder(sink Sink, opts ...Option) *Recorder {
	r := &Recorder{
		sink:      sink,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "journal")
	}
	return r
}

// BeforeTick implements quill.Hook.
func (r *Recorder) BeforeTick(ctx context.Context, _ uint64) context.Context {
	return ctx
}

// AfterTick implements quill.Hook. Sink errors are logged and kept for
// Err; the tick itself is never failed by the journal.
func (r *Recorder) AfterTick(ctx context.Context, report quill.TickReport) {
	if r.skipEmpty && len(report.Edits) == 0 && report.Err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, NewEntry(report, r.now()))
	if len(r.buf) >= r.batchSize {
		r.flushLocked(ctx)
	}
}

// Flush writes buffered entries.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(ctx)
}

func (r *Recorder) flushLocked(ctx context.Context) error {
	if len(r.buf) == 0 {
		return nil
	}
	if err := r.sink.Write(ctx, r.buf); err != nil {
		r.lastErr = err
		r.logger.Warn("journal write failed", "entries", len(r.buf), "error", err)
		return err
	}
	r.written += len(r.buf)
	r.buf = nil
	return nil
}

// Close flushes and closes the sink.
func (r *Recorder) Close(ctx context.Context) error {
	if err := r.Flush(ctx); err != nil {
		return err
	}
	return r.sink.Close(ctx)
}

// Written returns the number of entries the sink accepted.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Err returns the last sink error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}
