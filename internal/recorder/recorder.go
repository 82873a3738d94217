// Package recorder buffers datums produced by a running program and hands
// them, in batches, to every registered backend.
package recorder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/domain/data"
	"github.com/leengari/tablestore/internal/domain/types"
)

// DefaultDumpCount is the buffer size that triggers an automatic flush
const DefaultDumpCount = 10000

// ErrClosed is returned by Record and Flush after Close
var ErrClosed = errors.New("recorder is closed")

// Backend receives flushed batches. *engine.Store satisfies it.
type Backend interface {
	Notify(batch []*data.Datum) error
}

// DefaultField is added to every datum created by NewDatum. Value is
// evaluated at creation time.
type DefaultField struct {
	Name  string
	Value func() types.Value
}

type Option func(*Recorder)

// WithDumpCount sets how many datums are buffered before a flush.
// Values below 1 are ignored.
func WithDumpCount(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.dumpCount = n
		}
	}
}

// WithPrefix prepends p to every title passed to NewDatum
func WithPrefix(p string) Option {
	return func(r *Recorder) { r.prefix = p }
}

// WithDefaultField adds a leading field to every datum from NewDatum
func WithDefaultField(name string, value func() types.Value) Option {
	return func(r *Recorder) {
		r.defaults = append(r.defaults, DefaultField{Name: name, Value: value})
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// Recorder collects datums and flushes them to its backends in
// registration order.
type Recorder struct {
	mu        sync.Mutex
	buf       []*data.Datum
	backends  []Backend
	dumpCount int
	prefix    string
	defaults  []DefaultField
	logger    *slog.Logger
	closed    bool
}

func New(opts ...Option) *Recorder {
	r := &Recorder{
		dumpCount: DefaultDumpCount,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.buf = make([]*data.Datum, 0, r.dumpCount)
	return r
}

// RegisterBackend appends b to the list of flush targets
func (r *Recorder) RegisterBackend(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = append(r.backends, b)
}

// DumpCount returns the flush threshold
func (r *Recorder) DumpCount() int { return r.dumpCount }

// Buffered returns the number of datums waiting for the next flush
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// NewDatum returns a datum titled prefix+title, pre-filled with the default
// fields, whose Record method buffers it in r.
func (r *Recorder) NewDatum(title string) *data.Datum {
	d := data.NewBoundDatum(r.prefix+title, r.Record)
	for _, f := range r.defaults {
		d.AddVal(f.Name, f.Value())
	}
	return d
}

// Record buffers d and flushes once the buffer reaches the dump count
func (r *Recorder) Record(d *data.Datum) error {
	if d == nil {
		return fmt.Errorf("cannot record a nil datum")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.buf = append(r.buf, d)
	if len(r.buf) < r.dumpCount {
		r.mu.Unlock()
		return nil
	}
	batch, backends := r.takeLocked()
	r.mu.Unlock()

	return r.dispatch(batch, backends)
}

// Flush sends everything buffered to the backends
func (r *Recorder) Flush() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	batch, backends := r.takeLocked()
	r.mu.Unlock()

	return r.dispatch(batch, backends)
}

// Close flushes the buffer, then closes every backend that implements
// io.Closer. Further calls are no-ops.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	batch, backends := r.takeLocked()
	r.mu.Unlock()

	err := r.dispatch(batch, backends)
	for _, b := range backends {
		if c, ok := b.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("failed to close backend %T: %w", b, cerr))
			}
		}
	}
	return err
}

func (r *Recorder) takeLocked() ([]*data.Datum, []Backend) {
	batch := r.buf
	r.buf = make([]*data.Datum, 0, r.dumpCount)

	backends := make([]Backend, len(r.backends))
	copy(backends, r.backends)
	return batch, backends
}

// dispatch calls every backend even when an earlier one fails
func (r *Recorder) dispatch(batch []*data.Datum, backends []Backend) error {
	if len(batch) == 0 {
		return nil
	}

	var err error
	for i, b := range backends {
		if berr := b.Notify(batch); berr != nil {
			r.logger.Error("backend failed to accept batch",
				slog.Int("backend", i),
				slog.String("type", fmt.Sprintf("%T", b)),
				slog.Int("datums", len(batch)),
				slog.Any("error", berr),
			)
			err = multierr.Append(err, fmt.Errorf("backend %d: %w", i, berr))
		}
	}

	r.logger.Debug("flushed datums",
		slog.Int("datums", len(batch)),
		slog.Int("backends", len(backends)),
	)
	return err
}
