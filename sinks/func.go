package sinks

import (
	"sync"

	"github.com/one-com/rotorlog"
)

// WriteFunc is a caller-supplied callback invoked with one already
// formatted line per record, exactly as the FormatFunc produced it (no
// newline is appended).
type WriteFunc func(line string) error

// FuncSink adapts an arbitrary callback into a Sink, for hosts that want
// to receive records without going through an io.Writer at all (piping
// into their own event bus, for instance). Grounded on the teacher's
// daemon.LoggerFunc pattern: a settable callback guarded by a mutex so it
// can be swapped without racing concurrent writers.
type FuncSink struct {
	format   rotorlog.FormatFunc
	maxLevel rotorlog.Severity

	mu sync.Mutex
	fn WriteFunc
}

// NewFuncSink wraps fn. fn must not be nil.
func NewFuncSink(fn WriteFunc, format rotorlog.FormatFunc, maxLevel rotorlog.Severity) *FuncSink {
	if format == nil {
		format = rotorlog.WithTimestampFormat
	}
	return &FuncSink{fn: fn, format: format, maxLevel: maxLevel}
}

// SetFunc swaps the callback, e.g. to redirect output mid-run.
func (f *FuncSink) SetFunc(fn WriteFunc) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
}

func (f *FuncSink) Write(now *rotorlog.DeferredTimestamp, r *rotorlog.Record) error {
	if r.Severity > f.maxLevel {
		return nil
	}
	buf := getLineBuffer()
	defer putLineBuffer(buf)
	if err := f.format(buf, now, r); err != nil {
		return rotorlog.Wrap(rotorlog.FormatFailed, "func sink format", err)
	}
	line := buf.String()

	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	if err := fn(line); err != nil {
		return rotorlog.Wrap(rotorlog.SendFailed, "func sink callback", err)
	}
	return nil
}

func (f *FuncSink) Flush() error { return nil }
func (f *FuncSink) Shutdown()    {}

func (f *FuncSink) MaxLevel() rotorlog.Severity { return f.maxLevel }
